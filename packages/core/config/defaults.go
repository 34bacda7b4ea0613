package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "",
		Timeout:            30000, // 30 seconds
		Retries:            0,
		RetryDelay:         1000, // 1 second
		Rate:               0,
		FollowRedirects:    BoolPtr(true),
		MaxRedirects:       10,
		ValidateSSL:        BoolPtr(true),
		Headers:            nil,
		Output:             "console",
		NoColor:            BoolPtr(false),
		Verbose:            BoolPtr(false),
	}
}
