package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/certlink/pkg/config"
	"github.com/wadjakorntonsri/certlink/pkg/core/certid"
	"github.com/wadjakorntonsri/certlink/pkg/core/certlink"
	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
)

const usage = "expected 'newid', 'encode', 'decode', 'url', 'export' or 'import' subcommands"

func main() {
	newIDCmd := flag.NewFlagSet("newid", flag.ExitOnError)
	demo := newIDCmd.Bool("demo", false, "generate a DEMO preview id")

	encodeCmd := flag.NewFlagSet("encode", flag.ExitOnError)
	encOpts := payloadFlags(encodeCmd)

	decodeCmd := flag.NewFlagSet("decode", flag.ExitOnError)

	urlCmd := flag.NewFlagSet("url", flag.ExitOnError)
	urlOpts := payloadFlags(urlCmd)
	legacy := urlCmd.String("legacy-program", "", "build the legacy org/program/cert form with this program id")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch os.Args[1] {
	case "newid":
		newIDCmd.Parse(os.Args[2:])
		if *demo {
			fmt.Println(certid.NewDemo())
		} else {
			fmt.Println(certid.New())
		}
	case "encode":
		encodeCmd.Parse(os.Args[2:])
		token, err := newCodec(cfg).Encode(encOpts.payload())
		if err != nil {
			log.Fatalf("Encode failed: %v", err)
		}
		fmt.Println(token)
	case "decode":
		decodeCmd.Parse(os.Args[2:])
		if decodeCmd.NArg() != 1 {
			fmt.Println("usage: decode <token or share URL>")
			os.Exit(1)
		}
		doDecode(newCodec(cfg), decodeCmd.Arg(0))
	case "url":
		urlCmd.Parse(os.Args[2:])
		b := certlink.NewBuilder(cfg.BaseURL, newCodec(cfg))
		p := urlOpts.payload()
		if *legacy != "" {
			fmt.Println(b.LegacyURL(p.OrganizationID, *legacy, p.CertificateID))
			return
		}
		u, _, err := b.URL(p)
		if err != nil {
			log.Fatalf("URL failed: %v", err)
		}
		fmt.Println(u)
	case "export":
		exportCmd.Parse(os.Args[2:])
		doExport(openRepo(cfg))
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(openRepo(cfg), *importFile)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

type payloadOptions struct {
	org, program, cert *string
	issued             *int64
	ttl                *int
}

func payloadFlags(fs *flag.FlagSet) payloadOptions {
	return payloadOptions{
		org:     fs.String("org", "", "organization id"),
		program: fs.String("program", "", "program name (slugged)"),
		cert:    fs.String("cert", "", "certificate id (generated when empty)"),
		issued:  fs.Int64("issued", 0, "issue instant in unix millis (now when 0)"),
		ttl:     fs.Int("ttl", 365, "validity in days"),
	}
}

func (o payloadOptions) payload() certlink.LinkPayload {
	cert := *o.cert
	if cert == "" {
		cert = certid.New()
	}
	issued := time.Now()
	if *o.issued != 0 {
		issued = time.UnixMilli(*o.issued)
	}
	return certlink.NewPayload(*o.org, *o.program, cert, issued, *o.ttl)
}

func newCodec(cfg *config.Config) *certlink.Codec {
	mode, err := certlink.ParseMode(cfg.LinkSigning)
	if err != nil {
		log.Fatalf("Invalid link signing mode: %v", err)
	}
	codec, err := certlink.NewCodec(mode, []byte(cfg.LinkSecret))
	if err != nil {
		log.Fatalf("Failed to build codec: %v", err)
	}
	return codec
}

func openRepo(cfg *config.Config) *sqlstore.SQLRepository {
	repo, err := sqlstore.NewSQLRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	return repo
}

func doDecode(codec *certlink.Codec, raw string) {
	fragment := certlink.ParseFragment(raw)
	out := map[string]interface{}{}

	switch target := certlink.Classify(fragment).(type) {
	case certlink.LegacyPath:
		out["format"] = domain.FormatLegacy
		out["organization_id"] = target.OrganizationID
		out["program_id"] = target.ProgramID
		out["certificate_id"] = target.CertificateID
	case certlink.OpaqueToken:
		p, err := codec.Decode(string(target))
		if err != nil {
			log.Fatalf("Decode failed: %v", err)
		}
		out["format"] = domain.FormatToken
		out["organization_id"] = p.OrganizationID
		out["program_slug"] = p.ProgramSlug
		out["certificate_id"] = p.CertificateID
		out["issued_at"] = p.IssuedAt
		out["ttl_days"] = p.TTLDays
		out["expires_at"] = p.ExpiresAt()
		out["expired"] = certlink.IsExpired(p, time.Now())
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

func doExport(repo *sqlstore.SQLRepository) {
	defer repo.Close()
	certs, err := repo.Dump(context.Background())
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(certs); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

func doImport(repo *sqlstore.SQLRepository, filename string) {
	defer repo.Close()
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var certs []domain.Certificate
	if err := json.NewDecoder(file).Decode(&certs); err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	ctx := context.Background()
	count := 0
	for _, c := range certs {
		// Ids are unique; keep what is already there
		existing, _ := repo.GetByID(ctx, c.ID)
		if existing != nil {
			log.Printf("Skipping existing certificate: %s", c.ID)
			continue
		}
		if c.DeletedAt != nil {
			continue
		}

		if err := repo.Create(ctx, &c); err != nil {
			log.Printf("Failed to import %s: %v", c.ID, err)
		} else {
			count++
		}
	}
	log.Printf("Imported %d certificates", count)
}
