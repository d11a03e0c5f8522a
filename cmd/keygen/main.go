package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/solarops/dispatch/internal/core/services"
	"github.com/solarops/dispatch/pkg/utils/keygen"
)

// keygen prints secrets for config.yaml: a JWT signing secret, an
// encryption key for stored settings, or a bcrypt hash for a seeded user.
func main() {
	hashPassword := flag.String("hash", "", "print the bcrypt hash of this password instead")
	length := flag.Int("bytes", 32, "random bytes per generated secret")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := services.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if *length < 16 {
		fmt.Fprintln(os.Stderr, "refusing to generate secrets shorter than 16 bytes")
		os.Exit(2)
	}

	jwtSecret, err := keygen.GenerateHexSecret(*length)
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	encryptionKey, err := keygen.GenerateHexSecret(*length)
	if err != nil {
		log.Fatalf("Failed to generate encryption key: %v", err)
	}

	fmt.Printf("DISPATCH_AUTH_JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("DISPATCH_SECURITY_ENCRYPTION_KEY=%s\n", encryptionKey)
}
