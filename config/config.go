// Package config defines the pricer's configuration and how it is loaded.
package config

// Config contains process configuration.
type Config struct {
	// InputFile is the ';'-delimited bond list, relative to the working directory.
	InputFile string `koanf:"input_file" validate:"required"`

	// ValuationDate is the anchor/issue date (YYYY-MM-DD) before calendar adjustment.
	ValuationDate string `koanf:"valuation_date" validate:"required,datetime=2006-01-02"`

	// Calendar is the business-day calendar: TARGET or WEEKENDS.
	Calendar string `koanf:"calendar" validate:"required,calendar"`

	// DayCount is the accrual and curve-time convention.
	DayCount string `koanf:"day_count" validate:"required,daycount"`

	// MaturityRule: days365, calendar_years or business_days.
	MaturityRule string `koanf:"maturity_rule" validate:"maturityrule"`

	// Compounding of the flat discount curve: annual, continuous or simple.
	Compounding string `koanf:"compounding" validate:"compounding"`

	// OnError is abort (stop at the first bad line or bond) or skip.
	OnError string `koanf:"on_error" validate:"oneof=abort skip"`

	// OutputFormat: table, json or yaml.
	OutputFormat string `koanf:"output_format" validate:"outputformat"`

	// PriceDecimals controls rounding of prices in the table output.
	PriceDecimals int `koanf:"price_decimals" validate:"min=0,max=12"`

	// Locale, when set, formats table numbers (BCP 47, e.g. "pt-BR").
	Locale string `koanf:"locale" validate:"omitempty,bcp47_language_tag"`

	// Workers bounds concurrent valuations; 1 keeps the run sequential.
	Workers int `koanf:"workers" validate:"min=1,max=256"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// MetricsTextfile, when set, receives Prometheus metrics at exit.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		InputFile:     "dados_titulos.csv",
		ValuationDate: "2023-05-25",
		Calendar:      "TARGET",
		DayCount:      "ACT/ACT ISDA",
		MaturityRule:  "days365",
		Compounding:   "annual",
		OnError:       "abort",
		OutputFormat:  "table",
		PriceDecimals: 4,
		Workers:       1,
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}
