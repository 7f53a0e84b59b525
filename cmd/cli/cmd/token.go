package cmd

import (
	"time"

	"hiretrack/internal/auth"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development token",
	Long: `Sign a bearer token with the server's shared JWT secret. Intended for
local development; production tokens come from the identity provider.

The secret is read from --secret or ATS_JWT_SECRET.

Example:
  atsctl token --role hr
  export ATS_TOKEN=$(atsctl token --user-id 2f0c... --role applicant)`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		userID, _ := flags.GetString("user-id")
		roleName, _ := flags.GetString("role")
		issuer, _ := flags.GetString("issuer")
		ttl, _ := flags.GetDuration("ttl")

		role, err := auth.ParseRole(roleName)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		id := uuid.New()
		if userID != "" {
			if id, err = uuid.Parse(userID); err != nil {
				cmd.Printf("Error: invalid --user-id: %v\n", err)
				return
			}
		}

		tokens, err := auth.NewTokens(viper.GetString("jwt_secret"), issuer)
		if err != nil {
			cmd.Println("JWT secret not found. Please set it using the --secret flag or the ATS_JWT_SECRET environment variable")
			return
		}

		token, err := tokens.Issue(auth.Identity{UserID: id, Role: role}, ttl)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		cmd.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user-id", "", "User ID to embed (default: random)")
	tokenCmd.Flags().String("role", string(auth.RoleApplicant), "Role: applicant, hr or admin")
	tokenCmd.Flags().String("issuer", "hiretrack", "Issuer expected by the server")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().String("secret", "", "Shared JWT secret")
	viper.BindPFlag("jwt_secret", tokenCmd.Flags().Lookup("secret"))
}
