package prompt

// OutputFormat controls how submitted values are serialised.
type OutputFormat string

const (
	OutputFormatJSON   OutputFormat = "json"
	OutputFormatYAML   OutputFormat = "yaml"
	OutputFormatPretty OutputFormat = "pretty"
)

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithMaxAttempts caps how many times a field is asked again after failing
// validation. Zero or less means unlimited.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		f.maxAttempts = n
	}
}

// WithErrorPrefix prefixes validation messages shown between attempts.
func WithErrorPrefix(prefix string) Option {
	return func(f *Filler) {
		f.errorPrefix = prefix
	}
}
