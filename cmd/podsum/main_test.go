package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "transcribe", "summarize", "run", "watch", "players"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, sub := range []string{"list", "export"} {
		if cmd, _, err := root.Find([]string{"players", sub}); err != nil || cmd.Name() != sub {
			t.Errorf("players %s not registered", sub)
		}
	}
}

func TestTranscribeRequiresEndpointSettings(t *testing.T) {
	for _, k := range []string{"HF_TOKEN", "HF_NAMESPACE", "HF_INFERENCE_ENDPOINT_NAME", "HF_INFERENCE_ENDPOINT_URL"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"transcribe", "https://youtu.be/abc"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "HF_TOKEN") {
		t.Errorf("Execute() error = %v, want missing HF_TOKEN", err)
	}
}

func TestPlayersRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"players", "export", filepath.Join(os.TempDir(), "x.xlsx")})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("Execute() error = %v", err)
	}
}
