package main

import "testing"

func TestVersionCommandRuns(t *testing.T) {
	cmd := versionCmd()
	cmd.SetArgs(nil)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVersionCommandShort(t *testing.T) {
	cmd := versionCmd()
	if err := cmd.Flags().Set("short", "true"); err != nil {
		t.Fatalf("failed to set --short: %v", err)
	}
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVersionIsSet(t *testing.T) {
	if version == "" {
		t.Error("expected a non-empty version")
	}
}
