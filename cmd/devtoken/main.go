// Command devtoken mints a bearer token for local testing against AUTH_PROVIDER=jwt.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/petjoyful/profile-service/internal/middleware"
	"github.com/petjoyful/profile-service/internal/models"
)

func main() {
	_ = godotenv.Load()

	var (
		subject = flag.String("sub", "65f1a2b3c4d5e6f708192a3b", "user id placed in the userId and sub claims")
		email   = flag.String("email", "tutor@petjoyful.dev", "email claim")
		role    = flag.String("role", "tutor", "role claim")
		ttl     = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		secret  = flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret (default $JWT_SECRET)")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set; pass -secret")
		os.Exit(2)
	}

	owner, err := models.ParseOwnerID(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -sub:", err)
		os.Exit(2)
	}

	token, err := middleware.IssueToken(*secret, models.Identity{
		Subject: owner,
		Email:   *email,
		Role:    *role,
	}, *ttl, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
