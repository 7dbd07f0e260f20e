package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("set default option", func(t *testing.T) {
		c := NewConfig()

		require.Equal(t, "http://localhost:8080", c.Addr, "default address not set")
		require.Equal(t, 10*time.Second, c.Timeout, "default timeout not set")
		require.Equal(t, "Bitcoin", c.CurrencyType)
		require.Equal(t, "Transaction", c.TransactionType)
		require.Zero(t, c.Limit)
	})

	t.Run("load env", func(t *testing.T) {
		c := NewConfig()
		getenv := func(key string) string {
			switch key {
			case "WALLET_API_ADDR":
				return "http://wallet:9000"
			case "WALLET_API_TIMEOUT":
				return "3s"
			default:
				return ""
			}
		}

		c.LoadEnv(getenv)

		require.Equal(t, "http://wallet:9000", c.Addr)
		require.Equal(t, 3*time.Second, c.Timeout)
	})

	t.Run("bad timeout in env is ignored", func(t *testing.T) {
		c := NewConfig()
		c.LoadEnv(func(key string) string {
			if key == "WALLET_API_TIMEOUT" {
				return "soon"
			}
			return ""
		})

		require.Equal(t, defaultTimeout, c.Timeout)
	})

	t.Run("load dot env", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WALLET_API_ADDR=http://from-file:8080\n"), 0o600)
		require.NoError(t, err)

		c := NewConfig()
		err = c.LoadDotEnv(func() (string, error) { return dir, nil })

		require.NoError(t, err)
		require.Equal(t, "http://from-file:8080", c.Addr)
	})

	t.Run("missing dot env", func(t *testing.T) {
		c := NewConfig()
		err := c.LoadDotEnv(func() (string, error) { return t.TempDir(), nil })

		require.NoError(t, err)
		require.Equal(t, defaultAddr, c.Addr)
	})

	t.Run("parse flags", func(t *testing.T) {
		tests := []struct {
			name  string
			flags []string
		}{
			{
				name:  "short",
				flags: []string{"-a", "http://wallet:9000", "-n", "5", "-o", "10", "clients", "list"},
			},
			{
				name:  "long",
				flags: []string{"--addr", "http://wallet:9000", "--limit", "5", "--offset", "10", "clients", "list"},
			},
			{
				name:  "interspersed",
				flags: []string{"clients", "--limit", "5", "list", "--addr=http://wallet:9000", "-o", "10"},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := NewConfig()

				args, err := c.ParseFlags(tt.flags)

				require.NoError(t, err)
				require.Equal(t, []string{"clients", "list"}, args)
				require.Equal(t, "http://wallet:9000", c.Addr)
				require.Equal(t, 5, c.Limit)
				require.Equal(t, 10, c.Offset)
			})
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		c := NewConfig()

		_, err := c.ParseFlags([]string{"--bogus"})

		require.Error(t, err)
	})
}
