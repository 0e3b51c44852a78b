package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/footballerweb/ligaclient/internal/app"
	"github.com/footballerweb/ligaclient/internal/config"
	"github.com/footballerweb/ligaclient/pkg/tokenx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	application.OnAuthRequired = func() {
		fmt.Fprintln(os.Stderr, "session expired, run `ligactl login` again")
	}

	if err := run(application, os.Args[1:]); err != nil {
		log.Fatalf("ligactl: %v", err)
	}
}

func run(application *app.Application, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		return fmt.Errorf("usage: ligactl <login|status|whoami|claims|leagues|logout>")
	}

	switch args[0] {
	case "login":
		return login(ctx, application)
	case "status":
		return status(ctx, application)
	case "whoami":
		return whoami(ctx, application)
	case "claims":
		return claims(ctx, application)
	case "leagues":
		return leagues(ctx, application)
	case "logout":
		application.Logout(ctx)
		fmt.Println("logged out")
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// login prints the OAuth redirect URL and waits for the token pair the
// callback page displays after the provider flow completes.
func login(ctx context.Context, application *app.Application) error {
	authURL, err := application.API.AuthURL(ctx)
	if err != nil {
		return fmt.Errorf("fetching login URL: %w", err)
	}

	fmt.Println("Open the following URL in a browser and complete the login:")
	fmt.Println("  " + authURL)
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Access token: ")
	access, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading access token: %w", err)
	}

	fmt.Print("Refresh token (optional): ")
	refreshToken, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading refresh token: %w", err)
	}

	application.Login(ctx, strings.TrimSpace(access), strings.TrimSpace(refreshToken))

	if !application.Session.IsAuthenticated() {
		return fmt.Errorf("token was rejected, check that it is not expired")
	}

	fmt.Printf("logged in as %s\n", application.Session.UserEmail())

	return nil
}

func status(ctx context.Context, application *app.Application) error {
	application.Initialize(ctx)

	if !application.Session.IsAuthenticated() {
		fmt.Println("not authenticated")
		return nil
	}

	fmt.Printf("authenticated as %s\n", application.Session.UserEmail())

	token := application.Session.AccessToken()
	if cs, err := tokenx.Decode(token); err == nil {
		if exp, ok := cs.ExpiresAt(); ok {
			fmt.Printf("token expires at %s\n", exp.Local())
		}
	}

	if deadline, pending := application.Scheduler.PendingDeadline(); pending {
		fmt.Printf("next refresh scheduled for %s\n", deadline.Local())
	}

	return nil
}

func whoami(ctx context.Context, application *app.Application) error {
	application.Initialize(ctx)

	if !application.Session.IsAuthenticated() {
		return fmt.Errorf("not authenticated")
	}

	fmt.Printf("name:    %s\n", application.Session.UserName())
	fmt.Printf("email:   %s\n", application.Session.UserEmail())

	if picture := application.Session.UserPicture(); picture != "" {
		fmt.Printf("picture: %s\n", picture)
	}

	return nil
}

func claims(ctx context.Context, application *app.Application) error {
	application.Initialize(ctx)

	if !application.Session.IsAuthenticated() {
		return fmt.Errorf("not authenticated")
	}

	all := tokenx.AllClaims(application.Session.AccessToken())

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-22s %s\n", name, all[name])
	}

	return nil
}

func leagues(ctx context.Context, application *app.Application) error {
	application.Initialize(ctx)

	if !application.Session.IsAuthenticated() {
		return fmt.Errorf("not authenticated")
	}

	list, err := application.API.MyLeagues(ctx)
	if err != nil {
		return fmt.Errorf("listing leagues: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("no leagues")
		return nil
	}

	for _, league := range list {
		fmt.Printf("#%d %s (%s) - %d teams, role %s\n",
			league.ID, league.Name, league.Status, league.TeamCount, league.MyRole)
	}

	return nil
}
