package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-l string   public base URL for signing links
//	-m string   lease template path
//	-i int      invitation validity, hours
//	-f string   PDF service URL
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-v string   log level
//
// The invitation validity is in whole hours and is converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-l", "-m", "-i", "-f", "-u", "-p", "-b", "-g", "-e", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.PublicBaseURL, "l", config.PublicBaseURL, "public base URL of signing links")
	fs.StringVar(&config.TemplatePath, "m", config.TemplatePath, "lease template path")
	invitationValidity := fs.Int("i", int(config.InvitationValidity.Hours()), "invitation validity (in hours)")
	fs.StringVar(&config.PDFServiceURL, "f", config.PDFServiceURL, "PDF service URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.InvitationValidity = time.Duration(*invitationValidity) * time.Hour
}
