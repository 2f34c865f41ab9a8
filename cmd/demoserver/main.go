// Command demoserver starts the linkscout outreach sandbox.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/linkscout/internal/demoserver"
	"github.com/raysh454/linkscout/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   linkscout outreach sandbox")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("A small site for trying the html providers locally.")
	fmt.Println("Pages have versions that can be switched on-the-fly.")
	fmt.Println()
	fmt.Println("What it serves:")
	fmt.Println("  - Resource and tool pages with dead outbound links")
	fmt.Println("  - A contact page with an editor address and a form")
	fmt.Println("  - Guest post guidelines at /write-for-us")
	fmt.Println()
	fmt.Printf("Point linkscout at localhost:%d with providers.scheme set to http.\n", cfg.Port)
	fmt.Println()

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
