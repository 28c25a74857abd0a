package digest

import (
	"log"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/daily-digest/internal/handlers"
)

func init() {
	functionTarget := os.Getenv("FUNCTION_TARGET")
	if functionTarget == "" {
		log.Fatal("FUNCTION_TARGET environment variable is not set")
	}

	log.Printf("Registering function: %s", functionTarget)
	functions.HTTP(functionTarget, handlers.HandleRequest)
}
