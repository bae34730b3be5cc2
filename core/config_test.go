package core

import "testing"

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		key     string
		wantErr error
	}{
		{name: "debug with default key", debug: true, key: defaultSecretKey},
		{name: "prod with default key", key: defaultSecretKey, wantErr: ErrDefaultSecretKey},
		{name: "prod without key", key: "", wantErr: ErrDefaultSecretKey},
		{name: "prod with own key", key: "kitchen-2024-rotated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := NewTestConfig()
			conf.Debug = tt.debug
			conf.SecretKey = tt.key
			if err := conf.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
