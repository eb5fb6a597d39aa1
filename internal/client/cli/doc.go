// Package cli provides the VitalKeeper command-line client.
//
// It wires configuration, the local storage tiers and the session controller
// behind a cobra command tree:
//
//	vitalkeeper signup    create an account on this device
//	vitalkeeper login     authenticate
//	vitalkeeper logout    end the session
//	vitalkeeper whoami    show the current user
//	vitalkeeper update    change name or email
//	vitalkeeper shell     interactive REPL (default without a subcommand)
//
// Global flags: -c/--config (JSON file), -d/--data-dir, -l/--log-level.
// Passwords are always read from the terminal without echo.
package cli
