package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "milliseconds", input: "250ms", expected: 250 * time.Millisecond},
		{name: "seconds", input: "15s", expected: 15 * time.Second},
		{name: "compound", input: "1h30m", expected: 90 * time.Minute},
		{name: "zero", input: "0s", expected: 0},
		{name: "missing unit", input: "100", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, d.Duration)
		})
	}
}

func TestDuration_ConfigFormats(t *testing.T) {
	type pollConfig struct {
		Interval Duration `json:"interval" yaml:"interval" toml:"interval"`
	}

	t.Run("json", func(t *testing.T) {
		var cfg pollConfig
		require.NoError(t, json.Unmarshal([]byte(`{"interval":"12s"}`), &cfg))
		require.Equal(t, 12*time.Second, cfg.Interval.Duration)
	})

	t.Run("yaml", func(t *testing.T) {
		var cfg pollConfig
		require.NoError(t, yaml.Unmarshal([]byte("interval: 2m\n"), &cfg))
		require.Equal(t, 2*time.Minute, cfg.Interval.Duration)
	})

	t.Run("toml", func(t *testing.T) {
		var cfg pollConfig
		_, err := toml.Decode(`interval = "750ms"`, &cfg)
		require.NoError(t, err)
		require.Equal(t, 750*time.Millisecond, cfg.Interval.Duration)
	})

	t.Run("invalid json value", func(t *testing.T) {
		var cfg pollConfig
		require.Error(t, json.Unmarshal([]byte(`{"interval":"later"}`), &cfg))
	})
}

func TestDuration_JSONRoundtrip(t *testing.T) {
	original := struct {
		Timeout Duration `json:"timeout"`
	}{Timeout: NewDuration(30 * time.Second)}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	require.JSONEq(t, `{"timeout":"30s"}`, string(data))

	var decoded struct {
		Timeout Duration `json:"timeout"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original.Timeout, decoded.Timeout)
}

func TestDuration_JSONSchema(t *testing.T) {
	schema := Duration{}.JSONSchema()

	require.Equal(t, "string", schema.Type)
	require.Equal(t, "Duration", schema.Title)
	require.Contains(t, schema.Examples, "15s")
}
