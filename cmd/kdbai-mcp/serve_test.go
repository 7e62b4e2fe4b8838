package main

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/config"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

func TestProviderFactory(t *testing.T) {
	tests := []struct {
		name    string
		pc      config.ProviderConfig
		wantErr error
	}{
		{"openai", config.ProviderConfig{Type: config.ProviderOpenAI, APIKey: "k"}, nil},
		{"bm25", config.ProviderConfig{Type: config.ProviderBM25, BaseURL: "http://127.0.0.1:8000"}, nil},
		{"hashing", config.ProviderConfig{Type: config.ProviderHashing}, nil},
		{"unknown", config.ProviderConfig{Type: "sentence_transformers"}, domain.ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := providerFactory(tt.name, tt.pc, zap.NewNop())()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || p == nil {
				t.Fatalf("provider = %v, err = %v", p, err)
			}
		})
	}
}

func TestProviderFactory_BM25WithoutEndpoint(t *testing.T) {
	if _, err := providerFactory("bm25", config.ProviderConfig{Type: config.ProviderBM25}, zap.NewNop())(); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestCheckPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if err := checkPort(ln.Addr().String()); err == nil {
		t.Error("expected error for a port in use")
	}
	if err := checkPort("127.0.0.1:0"); err != nil {
		t.Errorf("free port: unexpected error: %v", err)
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.Flags().Parse([]string{"--transport", "stdio", "--port", "7100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	cfg := config.Config{Server: config.ServerConfig{Transport: config.TransportStreamableHTTP, Host: "0.0.0.0", Port: 7000}}
	applyFlags(cmd, &cfg, serveFlags{transport: transport, port: port})

	if cfg.Server.Transport != config.TransportStdio || cfg.Server.Port != 7100 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host should be untouched, got %q", cfg.Server.Host)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "kdbai-mcp dev") {
		t.Errorf("output = %q", out.String())
	}
}
