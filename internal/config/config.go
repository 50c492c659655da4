package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	SQLitePath  string
	ServiceName string
	Env         string

	// VATRatePercent is the inclusive rate applied when building orders and
	// the exclusive rate applied on invoices, e.g. 19 for 19%.
	VATRatePercent float64
	// TaxExempt marks the issuing business as VAT-exempt; invoices then
	// always carry zero VAT.
	TaxExempt bool

	// FreeShippingFrom is the subtotal above which shipping is free.
	FreeShippingFrom float64
	ShippingFee      float64

	InvoiceDueDays  int
	SequenceRetries int

	CompanyName string
	FooterNote  string
}

// Load loads configuration from the environment with sensible defaults.
// Precedence: explicit env var > .env file (loaded by the caller) > default.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		SQLitePath:       getEnv("SQLITE_PATH", ""),
		ServiceName:      getEnv("SERVICE_NAME", "orderdesk"),
		Env:              getEnv("APP_ENV", "development"),
		VATRatePercent:   parseFloat("VAT_RATE_PERCENT", 19),
		TaxExempt:        ParseBool("TAX_EXEMPT", false),
		FreeShippingFrom: parseFloat("FREE_SHIPPING_FROM", 39),
		ShippingFee:      parseFloat("SHIPPING_FEE", 4.90),
		InvoiceDueDays:   parseInt("INVOICE_DUE_DAYS", 14),
		SequenceRetries:  parseInt("SEQUENCE_RETRIES", 3),
		CompanyName:      getEnv("COMPANY_NAME", "Seifenwerk"),
		FooterNote:       getEnv("INVOICE_FOOTER_NOTE", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid number for %s: %s", key, v)
			return def
		}
		return f
	}
	return def
}

func parseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}
