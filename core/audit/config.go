package audit

// Config selects where audit events go.
type Config struct {
	// Sink is one of "log", "db" or "none".
	Sink string `mapstructure:"sink" default:"log"`
}
