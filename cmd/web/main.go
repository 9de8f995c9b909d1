package main

import (
	"github.com/joho/godotenv"

	"mentorhub_backend/internal/app"
)

func main() {
	// A missing .env is fine; deployed environments inject real env vars.
	_ = godotenv.Load()

	app.Run()
}
