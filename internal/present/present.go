// Package present formats requirement fields for display. The helpers are
// pure and shared by the web templates and the CLI tables.
package present

import (
	"strings"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// Style tokens returned by ActionStyleClass.
const (
	StyleAllow = "text-success"
	StyleDeny  = "text-danger"
)

// AnyService is shown when a requirement is not restricted to specific services.
const AnyService = "any"

// FormatServices renders services as "name -> port,port" joined by ", ".
// An empty or nil list means the requirement covers any service.
func FormatServices(services []domain.Service) string {
	if len(services) == 0 {
		return AnyService
	}
	parts := make([]string, 0, len(services))
	for _, svc := range services {
		parts = append(parts, svc.Name+" -> "+formatPorts(svc.Ports))
	}
	return strings.Join(parts, ", ")
}

func formatPorts(ports []domain.Port) string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.String()
	}
	return strings.Join(out, ",")
}

// FormatApplications joins application names with ", ".
func FormatApplications(apps []string) string {
	return strings.Join(apps, ", ")
}

// ActionStyleClass maps a requirement action to a CSS class.
func ActionStyleClass(action string) string {
	if action == domain.ActionDeny {
		return StyleDeny
	}
	return StyleAllow
}
