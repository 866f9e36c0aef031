package keybackend

// KeysConfig holds configuration for loading the API key.
type KeysConfig struct {
	Inline string `mapstructure:"inline"` // Key given directly in config or env
	File   string `mapstructure:"file"`   // Path to a file holding the key
}

// NewSecretStore resolves the configured key and returns its verifier.
// A key read from File takes precedence over Inline. It fails with ErrNoKey
// when neither source yields a key.
func NewSecretStore(cfg KeysConfig) (*StaticKey, error) {
	key := cfg.Inline

	if cfg.File != "" {
		fileKey, err := LoadKeyFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		key = fileKey
	}

	return NewStaticKey(key)
}
