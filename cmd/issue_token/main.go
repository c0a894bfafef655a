// Command issue_token emite un Bearer token para un operador de bodega.
// El servicio no administra usuarios: los tokens se firman con JWT_SECRET desde aquí
// o desde el proveedor de identidad que comparta el secreto.
//
//	go run ./cmd/issue_token -company <uuid> -user <uuid> -role bodeguero
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/jwt"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

var roles = map[string]struct{}{"admin": {}, "bodeguero": {}, "vendedor": {}}

func main() {
	companyID := flag.String("company", "", "company_id del token (obligatorio)")
	userID := flag.String("user", "", "user_id del operador (obligatorio)")
	role := flag.String("role", "vendedor", "admin | bodeguero | vendedor")
	ttl := flag.Duration("ttl", 0, "vigencia; 0 = JWT_EXPIRATION_MINUTES")
	flag.Parse()

	log := logger.New(logger.Config{Env: "development", Level: "info"})

	if *companyID == "" || *userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	r := strings.ToLower(*role)
	if _, ok := roles[r]; !ok {
		log.Fatal().Str("role", *role).Msg("rol no reconocido")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cargar configuración")
	}
	if *ttl <= 0 {
		*ttl = cfg.JWT.TTL()
	}

	token, err := jwt.Generate(cfg.JWT.Secret, cfg.JWT.Issuer, jwt.Identity{
		UserID:    *userID,
		CompanyID: *companyID,
		Role:      r,
	}, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("firmar token")
	}
	log.Info().Str("role", r).Dur("ttl", *ttl).Msg("token emitido")
	fmt.Println(token)
}
