package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// LocalIdentity clave de c.Locals con la jwt.Identity del operador.
const LocalIdentity = "identity"

// Roles de operación del libro.
//   - admin: maestros de bodegas/productos y valorización.
//   - bodeguero: registra entradas, salidas, traslados y consumos.
//   - vendedor: solo consulta saldos y planes de asignación.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// AuthConfig parámetros de validación del Bearer token.
type AuthConfig struct {
	Secret string
	Issuer string // vacío = no se valida el emisor
}

// AuthMiddleware valida el Bearer token y deja la identidad en c.Locals.
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "se requiere Authorization: Bearer <token>"})
		}
		id, err := jwt.Parse(cfg.Secret, cfg.Issuer, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalIdentity, id)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole autoriza solo a los roles indicados. Va después de AuthMiddleware.
// Sin rol en el token responde 401 MISSING_ROLE; con rol no permitido, 403 FORBIDDEN.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if _, ok := allowed[strings.ToLower(role)]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
		}
		return c.Next()
	}
}

// GetIdentity devuelve la identidad cargada por AuthMiddleware (vacía si no pasó por él).
func GetIdentity(c *fiber.Ctx) jwt.Identity {
	id, _ := c.Locals(LocalIdentity).(jwt.Identity)
	return id
}

// GetUserID usuario que queda como created_by de los movimientos.
func GetUserID(c *fiber.Ctx) string { return GetIdentity(c).UserID }

// GetCompanyID empresa dueña del libro consultado.
func GetCompanyID(c *fiber.Ctx) string { return GetIdentity(c).CompanyID }

func GetRole(c *fiber.Ctx) string { return GetIdentity(c).Role }
