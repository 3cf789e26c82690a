package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/cli/output"
	"github.com/marmos91/dittodrive/internal/cli/prompt"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long: `Manage DittoDrive users directly in the database.

These commands work while the server is stopped; they open the database
configured in the config file.`,
}

var (
	userAddEmail       string
	userAddDisplayName string
	userAddRole        string
	userAddPassword    string
	userListOutput     string
	userDeleteForce    bool
)

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user",
	Long: `Create a user. Without --password the password is read interactively,
and without --role the role is chosen from a list when running on a terminal.

Examples:
  dittodrive user add alice
  dittodrive user add bob --role admin --email bob@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user and all of their files",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddEmail, "email", "", "Email address")
	userAddCmd.Flags().StringVar(&userAddDisplayName, "display-name", "", "Display name")
	userAddCmd.Flags().StringVar(&userAddRole, "role", "", "Role (user|admin)")
	userAddCmd.Flags().StringVar(&userAddPassword, "password", "", "Password (prompted when omitted)")

	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table|json|yaml)")

	userDeleteCmd.Flags().BoolVarP(&userDeleteForce, "force", "f", false, "Skip confirmation")

	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	role, err := resolveRole(userAddRole)
	if err != nil {
		return err
	}

	password := userAddPassword
	if password == "" {
		password, err = prompt.NewPassword(models.MinPasswordLength)
		if err != nil {
			return err
		}
	}
	if err := models.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user := &models.User{
		Username:     args[0],
		PasswordHash: hash,
		Enabled:      true,
		Role:         string(role),
		DisplayName:  userAddDisplayName,
		Email:        userAddEmail,
	}
	if err := user.Validate(); err != nil {
		return err
	}

	id, err := st.CreateUser(cmd.Context(), user)
	if errors.Is(err, models.ErrDuplicateUser) {
		return fmt.Errorf("user %q already exists", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	printer := output.DefaultPrinter(output.FormatTable)
	printer.Success(fmt.Sprintf("User %q created (id %s, role %s)", args[0], id, role))
	return nil
}

// resolveRole validates flag, or asks for a role on a terminal when it is
// empty.
func resolveRole(flag string) (models.UserRole, error) {
	if flag != "" {
		role := models.UserRole(flag)
		if !role.IsValid() {
			return "", fmt.Errorf("invalid role %q (valid: user, admin)", flag)
		}
		return role, nil
	}
	if !output.IsTerminal(os.Stdin) {
		return models.RoleUser, nil
	}

	choice, err := prompt.Select("Role", []prompt.Option{
		{Label: "user - owns a private namespace", Value: string(models.RoleUser)},
		{Label: "admin - manages users and permissions", Value: string(models.RoleAdmin)},
	})
	if err != nil {
		return "", err
	}
	return models.UserRole(choice), nil
}

// userRow is the listed view of a user. It never carries the password hash.
type userRow struct {
	ID        string     `json:"id" yaml:"id"`
	Username  string     `json:"username" yaml:"username"`
	Role      string     `json:"role" yaml:"role"`
	Enabled   bool       `json:"enabled" yaml:"enabled"`
	Email     string     `json:"email,omitempty" yaml:"email,omitempty"`
	LastLogin *time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// userList renders users as a table.
type userList []userRow

func newUserList(users []*models.User) userList {
	l := make(userList, 0, len(users))
	for _, u := range users {
		l = append(l, userRow{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			Enabled:   u.Enabled,
			Email:     u.Email,
			LastLogin: u.LastLogin,
		})
	}
	return l
}

func (l userList) Headers() []string {
	return []string{"ID", "Username", "Role", "Enabled", "Email", "Last login"}
}

func (l userList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, u := range l {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			u.ID, u.Username, u.Role, fmt.Sprintf("%t", u.Enabled), u.Email, lastLogin,
		})
	}
	return rows
}

func runUserList(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(userListOutput)
	if err != nil {
		return err
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, err := st.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	return printer.Print(newUserList(users))
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()

	user, err := st.GetUser(ctx, args[0])
	if err != nil {
		return fmt.Errorf("user %q: %w", args[0], err)
	}

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete user %q and all of their files", user.Username), userDeleteForce)
	if err != nil {
		return err
	}
	if !ok {
		return prompt.ErrAborted
	}

	svc := drive.New(st, cfg.DriveConfig(), nil)
	if err := svc.DeleteUser(ctx, cliActor, user.ID); err != nil {
		return err
	}

	output.DefaultPrinter(output.FormatTable).Success(fmt.Sprintf("User %q deleted", user.Username))
	return nil
}
