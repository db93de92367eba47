package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"dlscan/pkg/store"
	"dlscan/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	days := flag.Int("days", 30, "renewal window in days")
	list := flag.Bool("list", false, "list matching licenses")
	flag.Parse()

	_ = godotenv.Load()
	gdb, err := store.OpenFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v; export DB_DSN and retry\n", err)
		os.Exit(2)
	}
	r, err := report.Build(gdb, *username, time.Now(), *days)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	report.Print(os.Stdout, r, *list)
}
