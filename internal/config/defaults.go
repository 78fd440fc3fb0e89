package config

// Runner constants taken from the benchmark harness: estimate with 3 repetitions,
// aim for about two seconds per measurement, clamp to [10, 200] repetitions and
// take the minimum of 10 baseline samples of 50 repetitions each.
const (
	DefaultTimeout             = 100
	DefaultMaxEstimateSeconds  = 2.0
	DefaultEstimateRepetitions = 3
	DefaultMinRepetitions      = 10
	DefaultMaxRepetitions      = 200
	DefaultBaselineRepetitions = 50
	DefaultBaselineSamples     = 10

	DefaultPackageName    = "nickel"
	DefaultPackageURL     = "https://github.com/Quincunx271/nickel"
	DefaultPackageLicense = "BSL-1.0"
	DefaultUploadURL      = "https://api.bintray.com/conan/quincunx271/public/"
	DefaultTestFolder     = ".conan/test_package"
	DefaultNotifySubject  = "nickel.bench.results"
)

func applyDefaults(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	b := &cfg.Bench
	if b.Timeout == 0 {
		b.Timeout = DefaultTimeout
	}
	if b.MaxEstimateSeconds == 0 {
		b.MaxEstimateSeconds = DefaultMaxEstimateSeconds
	}
	if b.EstimateRepetitions == 0 {
		b.EstimateRepetitions = DefaultEstimateRepetitions
	}
	if b.MinRepetitions == 0 {
		b.MinRepetitions = DefaultMinRepetitions
	}
	if b.MaxRepetitions == 0 {
		b.MaxRepetitions = DefaultMaxRepetitions
	}
	if b.BaselineRepetitions == 0 {
		b.BaselineRepetitions = DefaultBaselineRepetitions
	}
	if b.BaselineSamples == 0 {
		b.BaselineSamples = DefaultBaselineSamples
	}
	if b.Store == "" {
		b.Store = "file"
	}

	if cfg.Notify.Enabled() && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}

	p := &cfg.Package
	if p.Name == "" {
		p.Name = DefaultPackageName
	}
	if p.URL == "" {
		p.URL = DefaultPackageURL
	}
	if p.License == "" {
		p.License = DefaultPackageLicense
	}
	if p.UploadURL == "" {
		p.UploadURL = DefaultUploadURL
	}
	if p.TestFolder == "" {
		p.TestFolder = DefaultTestFolder
	}
}
