package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for LevelPap Training")
	fmt.Println("===========================================")
	fmt.Println()

	accessSecret, err := randomHex(32)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}
	refreshSecret, err := randomHex(32)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}
	mpesaWebhookSecret, err := randomHex(16)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Secrets generated successfully!")
	fmt.Println()
	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
	fmt.Printf("MPESA_WEBHOOK_SECRET=%s\n", mpesaWebhookSecret)
	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}

func randomHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
