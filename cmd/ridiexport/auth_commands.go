package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"ridiexport/internal/credentials"
	"ridiexport/internal/registration"
)

// maxPayloadBytes bounds pasted registration payloads.
const maxPayloadBytes = 1 << 20

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage registered device credentials",
	}

	authCmd.AddCommand(newAuthLoginCommand(ctx))
	authCmd.AddCommand(newAuthRegisterCommand(ctx))
	authCmd.AddCommand(newAuthListCommand(ctx))
	authCmd.AddCommand(newAuthSwitchCommand(ctx))
	authCmd.AddCommand(newAuthRemoveCommand(ctx))

	return authCmd
}

func newAuthLoginCommand(ctx *commandContext) *cobra.Command {
	var noBrowser bool
	var noWait bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the account login page and register the device list it returns",
		Long: "Opens the RIDI login page. After logging in, the browser shows a JSON\n" +
			"device list; paste it here and finish with Ctrl-D (Ctrl-Z on Windows).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			url, err := registration.LoginURL(cfg.Auth.LoginURL, cfg.Auth.DevicesAPIURL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Login URL: %s\n", url)
			if !noBrowser {
				browser.Stdout = cmd.ErrOrStderr()
				browser.Stderr = cmd.ErrOrStderr()
				if err := browser.OpenURL(url); err != nil {
					fmt.Fprintf(out, "Could not open a browser (%v); open the URL above manually.\n", err)
				}
			}
			if noWait {
				fmt.Fprintln(out, "Then run `ridiexport auth register` with the JSON shown after login.")
				return nil
			}

			fmt.Fprintln(out, "Paste the JSON shown after login, then press Ctrl-D:")
			payload, err := readPayload(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return registerPayload(cmd, ctx, payload)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the login URL without opening a browser")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Do not wait for the device list on stdin")
	return cmd
}

func newAuthRegisterCommand(ctx *commandContext) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "register [payload]",
		Short: "Register a device from the JSON device list",
		Long: "Registers the first device in the JSON device list returned after login.\n" +
			"The payload may be passed as an argument, read from --file, or piped on stdin.\n" +
			"Text copied before the opening brace is ignored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			switch {
			case strings.TrimSpace(filePath) != "":
				data, err := os.ReadFile(filePath)
				if err != nil {
					return fmt.Errorf("read payload file: %w", err)
				}
				payload = data
			case len(args) > 0 && !(len(args) == 1 && args[0] == "-"):
				payload = []byte(strings.Join(args, " "))
			default:
				data, err := readPayload(cmd.InOrStdin())
				if err != nil {
					return err
				}
				payload = data
			}
			return registerPayload(cmd, ctx, payload)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read the payload from a file")
	return cmd
}

func readPayload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func registerPayload(cmd *cobra.Command, ctx *commandContext, payload []byte) error {
	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	result, err := registration.NewRegistrar(store, logger).RegisterBytes(payload)
	if err != nil {
		return registrationHint(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message())
	if active, ok := store.Active(); ok && active.UserID != result.UserID {
		fmt.Fprintf(cmd.OutOrStdout(), "Active account is still %s; use `ridiexport auth switch %s` to change it.\n", active.Label(), result.UserID)
	}
	return nil
}

func registrationHint(err error) error {
	switch {
	case errors.Is(err, registration.ErrInvalidPayload):
		return fmt.Errorf("%w (copy the whole JSON text shown after login)", err)
	case errors.Is(err, registration.ErrMissingDevices):
		return fmt.Errorf("%w (log in again and copy the device list)", err)
	default:
		return err
	}
}

type credentialView struct {
	UserID     string `json:"user_idx"`
	DeviceName string `json:"device_name,omitempty"`
	DeviceID   string `json:"device_id"`
	Active     bool   `json:"active"`
}

func newAuthListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			set := store.Snapshot()
			views := make([]credentialView, 0, len(set.Users))
			for _, cred := range set.Users {
				views = append(views, credentialView{
					UserID:     cred.UserID,
					DeviceName: cred.DeviceName,
					DeviceID:   maskDeviceID(cred.DeviceID),
					Active:     cred.UserID == set.ActiveUser,
				})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No accounts registered")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				marker := ""
				if v.Active {
					marker = "*"
				}
				rows = append(rows, []string{marker, v.UserID, v.DeviceName, v.DeviceID})
			}
			fmt.Fprintln(out, renderTable([]string{"", "User", "Device", "Device ID"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAuthSwitchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <user>",
		Short: "Make a registered account active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			userID := strings.TrimSpace(args[0])
			if err := store.SetActive(userID); err != nil {
				if errors.Is(err, credentials.ErrUnknownUser) {
					return fmt.Errorf("account %s is not registered (see `ridiexport auth list`)", userID)
				}
				return err
			}
			active, _ := store.Active()
			fmt.Fprintf(cmd.OutOrStdout(), "Active account: %s\n", active.Label())
			return nil
		},
	}
}

func newAuthRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <user>",
		Aliases: []string{"rm"},
		Short:   "Forget a registered account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			userID := strings.TrimSpace(args[0])
			if err := store.Remove(userID); err != nil {
				if errors.Is(err, credentials.ErrUnknownUser) {
					return fmt.Errorf("account %s is not registered (see `ridiexport auth list`)", userID)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed account %s\n", userID)
			if active, ok := store.Active(); ok {
				fmt.Fprintf(out, "Active account: %s\n", active.Label())
			} else {
				fmt.Fprintln(out, "No active account")
			}
			return nil
		},
	}
}

// maskDeviceID keeps the last four characters of a device id.
func maskDeviceID(id string) string {
	const visible = 4
	if len(id) <= visible {
		return id
	}
	return strings.Repeat("*", len(id)-visible) + id[len(id)-visible:]
}
