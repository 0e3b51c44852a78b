package tokenx

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Canonical claim names accepted by Claim. Each maps to an ordered list of
// historical spellings; some identity providers still emit the old
// schemas.xmlsoap.org claim URIs.
const (
	ClaimEmail   = "email"
	ClaimName    = "name"
	ClaimPicture = "picture"
	ClaimSubject = "sub"
	ClaimRole    = "role"
)

const (
	xmlsoapEmail = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	xmlsoapName  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	xmlsoapID    = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	xmlsoapGiven = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	xmlsoapSur   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	msRole       = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

var claimAliases = map[string][]string{
	ClaimEmail:   {"email", xmlsoapEmail},
	ClaimName:    {xmlsoapName, "name", "given_name", "unique_name"},
	ClaimPicture: {"picture"},
	ClaimSubject: {"sub", xmlsoapID},
	ClaimRole:    {"role", msRole},
}

// friendlyNames renames well-known technical claim keys to the labels the
// UI shows. Unrecognized keys pass through unchanged.
var friendlyNames = map[string]string{
	xmlsoapName:      "Nombre",
	xmlsoapEmail:     "Email",
	xmlsoapID:        "ID de Usuario",
	xmlsoapGiven:     "Nombre",
	xmlsoapSur:       "Apellido",
	msRole:           "Rol",
	"sub":            "Subject (ID)",
	"iss":            "Emisor",
	"aud":            "Audiencia",
	"exp":            "Expiración",
	"iat":            "Emitido en",
	"nbf":            "No válido antes de",
	"jti":            "ID del Token",
	"picture":        "Foto de Perfil",
	"given_name":     "Nombre",
	"family_name":    "Apellido",
	"locale":         "Idioma/Región",
	"email_verified": "Email Verificado",
	"email":          "Email",
	"name":           "Nombre",
	"role":           "Rol",
}

// FriendlyPicture is the renamed key the profile picture claim lands under
// in AllClaims.
const FriendlyPicture = "Foto de Perfil"

// Claim looks up a claim by canonical name, trying each known alternative
// spelling in order. Returns the first match, or empty string and false
// when the token does not decode or carries none of the spellings.
func Claim(token, canonical string) (string, bool) {
	cs, err := Decode(token)
	if err != nil {
		return "", false
	}

	names, ok := claimAliases[canonical]
	if !ok {
		names = []string{canonical}
	}

	for _, name := range names {
		if v, ok := cs.Get(name); ok {
			return v, true
		}
	}

	return "", false
}

// AllClaims decodes every claim in the payload into a map keyed by friendly
// names. When two raw keys rename to the same friendly name the first wins;
// raw keys are visited in sorted order so the result is deterministic. A
// token that fails to decode yields an empty map.
func AllClaims(token string) map[string]string {
	out := map[string]string{}

	cs, err := Decode(token)
	if err != nil {
		return out
	}

	keys := make([]string, 0, len(cs.claims))
	for key := range cs.claims {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v, ok := claimString(cs.claims[key])
		if !ok {
			continue
		}

		name := key
		if friendly, ok := friendlyNames[key]; ok {
			name = friendly
		}

		if _, exists := out[name]; !exists {
			out[name] = v
		}
	}

	return out
}

// claimString converts a decoded JSON claim value to its string form.
// List values yield their first element, matching the first-wins rule.
func claimString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []any:
		if len(val) == 0 {
			return "", false
		}
		return claimString(val[0])
	default:
		return "", false
	}
}
