package main

import (
	"flag"
	"fmt"
	"os"

	"couponocr/process/report"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	couponType := flag.String("type", "", "coupon type to report for (empty for all)")
	month := flag.String("month", "", "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	if *month == "" {
		fmt.Fprintln(os.Stderr, "-month is required")
		os.Exit(2)
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	if err := report.Run(os.Stdout, gdb, *couponType, *month, *list); err != nil {
		log.Fatal().Err(err).Msg("report")
	}
}
