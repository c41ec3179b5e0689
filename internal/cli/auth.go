package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	loginCmd := &cobra.Command{
		Use:   "login [name]",
		Short: "Open the API's login gate",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLogin,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Close the API's login gate",
		Args:  cobra.NoArgs,
		Run:   runLogout,
	}

	RootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.Login(cmd.Context(), name); err != nil {
		exitErr("login", err)
	}
	user, err := a.svc.UserName(cmd.Context())
	if err != nil {
		exitErr("login", err)
	}
	printJSON(map[string]any{"ok": true, "name": user})
}

func runLogout(cmd *cobra.Command, args []string) {
	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.Logout(cmd.Context()); err != nil {
		exitErr("logout", err)
	}
	printJSON(map[string]any{"ok": true})
}
