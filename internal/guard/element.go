package guard

import (
	"html/template"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
)

// DeniedMessage is the optional fallback shown in place of gated content.
const DeniedMessage = "Akses ditolak"

// ElementGate decides whether a fragment of a page is rendered.
type ElementGate struct {
	resolver permission.Resolver
}

// Elements returns the element gate for resolver. A nil resolver denies everything.
func Elements(resolver permission.Resolver) ElementGate {
	if resolver == nil {
		resolver = permission.NewServerDelivered(nil)
	}
	return ElementGate{resolver: resolver}
}

// Allows reports whether req is met.
func (e ElementGate) Allows(req Requirement) bool {
	return Satisfied(e.resolver, req)
}

// Render returns content when req is met, otherwise fallback. Fallback may be nil.
func (e ElementGate) Render(req Requirement, content, fallback any) any {
	if e.Allows(req) {
		return content
	}
	return fallback
}

func (e ElementGate) Can(key string) bool {
	return e.resolver.Can(domain.PermissionKey(key))
}

func (e ElementGate) CanAll(keys ...string) bool {
	return e.resolver.CanAll(toKeys(keys)...)
}

func (e ElementGate) CanAny(keys ...string) bool {
	return e.resolver.CanAny(toKeys(keys)...)
}

// FuncMap exposes the gate to templates as can, canAll, canAny and denied.
func (e ElementGate) FuncMap() template.FuncMap {
	return template.FuncMap{
		"can":    e.Can,
		"canAll": e.CanAll,
		"canAny": e.CanAny,
		"denied": func() string { return DeniedMessage },
	}
}

// TemplateFuncs returns placeholder functions so templates using the gate can be parsed
// before a request binds a real gate with Funcs.
func TemplateFuncs() template.FuncMap {
	return Elements(nil).FuncMap()
}

func toKeys(keys []string) []domain.PermissionKey {
	out := make([]domain.PermissionKey, 0, len(keys))
	for _, key := range keys {
		out = append(out, domain.PermissionKey(key))
	}
	return out
}
