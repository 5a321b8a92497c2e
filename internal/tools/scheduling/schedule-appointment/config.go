package scheduleappointment

type Config struct {
	DefaultServiceType string
	DefaultDuration    int
	MinDuration        int
	MaxDuration        int
}

func LoadConfig() *Config {
	return &Config{
		DefaultServiceType: "General Consultation",
		DefaultDuration:    60,
		MinDuration:        15,
		MaxDuration:        480,
	}
}
