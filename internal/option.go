package internal

// Option is a functional option for assembling the doto application.
type Option func(*application)

// application is the state Run assembles before serving: the parsed
// configuration selecting the storage path, HTTP address, auth mode, and
// backup import directory.
type application struct {
	config *Config
}

// WithConfig sets the application configuration. Run requires one.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
