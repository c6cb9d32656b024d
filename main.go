package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Akshitakasturia08/ai-voice-detection-api/cmd"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/buildinfo"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/privacy"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

// systemIDEnv pins the system ID across restarts; otherwise a new one is
// generated per process
const systemIDEnv = "VOICE_SYSTEM_ID"

func main() {
	info := buildinfo.NewContext(version, buildDate, systemID())

	if err := cmd.RootCommand(info).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func systemID() string {
	if id := strings.ToUpper(os.Getenv(systemIDEnv)); id != "" {
		if privacy.IsValidSystemID(id) {
			return id
		}
		fmt.Fprintf(os.Stderr, "warning: ignoring malformed %s\n", systemIDEnv)
	}

	id, err := privacy.GenerateSystemID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to generate system ID: %v\n", err)
	}
	return id
}
