// Package validation checks inventory payloads after they have been decoded.
// Shape is enforced by the JSON schemas in the inventory adapter; the rules
// here cover what a schema cannot express cleanly, such as ids that must be
// unique across both lists. Services and ports are display-only: CheckServices
// reports odd values without making a response invalid.
package validation

import (
	"fmt"
	"strings"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateAction validates a requirement action.
func ValidateAction(action string) error {
	switch action {
	case domain.ActionAllow, domain.ActionDeny:
		return nil
	case "":
		return fmt.Errorf("action must not be empty")
	default:
		return fmt.Errorf("action must be %q or %q", domain.ActionAllow, domain.ActionDeny)
	}
}

// ValidateIdentifier validates an id issued by the inventory service.
func ValidateIdentifier(id domain.Identifier) error {
	if id == "" {
		return fmt.Errorf("id must not be null")
	}
	if strings.TrimSpace(id.String()) == "" {
		return fmt.Errorf("id must not be empty")
	}
	return nil
}

// ValidatePort validates a port number or range.
// Valid formats: single port (22), port range (80-443) or "any".
func ValidatePort(port domain.Port) error {
	p := port.String()
	if p == "" {
		return fmt.Errorf("port must not be empty")
	}
	if p == "any" {
		return nil
	}

	// Check for range (e.g., 80-443)
	if strings.Contains(p, "-") {
		parts := strings.Split(p, "-")
		if len(parts) != 2 {
			return fmt.Errorf("invalid port range: %s", p)
		}
		lo, okLo := parsePortNumber(parts[0])
		hi, okHi := parsePortNumber(parts[1])
		if !okLo || !okHi {
			return fmt.Errorf("invalid port range: %s", p)
		}
		if lo > hi {
			return fmt.Errorf("port range start exceeds end: %s", p)
		}
		return nil
	}

	if _, ok := parsePortNumber(p); !ok {
		return fmt.Errorf("invalid port number: %s", p)
	}
	return nil
}

// parsePortNumber parses a port number (1-65535).
func parsePortNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	num := 0
	for _, b := range []byte(s) {
		if !isNum(b) {
			return 0, false
		}
		num = num*10 + int(b-'0')
		if num > 65535 {
			return 0, false
		}
	}
	return num, num > 0
}

// ValidateScenarios validates a scenario catalog.
func ValidateScenarios(scenarios []domain.Scenario) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[domain.Identifier]bool, len(scenarios))
	for i, s := range scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if err := ValidateIdentifier(s.ID); err != nil {
			errs.Add(field+".id", s.ID.String(), err.Error())
			continue
		}
		if seen[s.ID] {
			errs.Add(field+".id", s.ID.String(), "duplicate scenario id")
		}
		seen[s.ID] = true
	}
	return errs
}

// ValidateRequirement validates a single requirement. field prefixes every
// reported field name.
func ValidateRequirement(field string, r domain.Requirement) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateIdentifier(r.ID); err != nil {
		errs.Add(field+".id", r.ID.String(), err.Error())
	}
	if err := ValidateAction(r.Action); err != nil {
		errs.Add(field+".action", r.Action, err.Error())
	}
	return errs
}

// CheckServices reports unnamed services and ports that are neither a port
// number, a range nor "any". The findings are advisory.
func CheckServices(field string, r domain.Requirement) ValidationErrors {
	var errs ValidationErrors
	for i, svc := range r.Services {
		svcField := fmt.Sprintf("%s.services[%d]", field, i)
		if strings.TrimSpace(svc.Name) == "" {
			errs.Add(svcField+".name", svc.Name, "service name is empty")
		}
		for j, port := range svc.Ports {
			if err := ValidatePort(port); err != nil {
				errs.Add(fmt.Sprintf("%s.ports[%d]", svcField, j), port.String(), err.Error())
			}
		}
	}
	return errs
}

// CheckRequirementSet runs CheckServices over both lists.
func CheckRequirementSet(set *domain.RequirementSet) ValidationErrors {
	var errs ValidationErrors
	for i, r := range set.ExistingRequirements {
		errs = append(errs, CheckServices(fmt.Sprintf("existingRequirements[%d]", i), r)...)
	}
	for i, r := range set.NewRequirements {
		errs = append(errs, CheckServices(fmt.Sprintf("newRequirements[%d]", i), r)...)
	}
	return errs
}

// ValidateRequirementSet validates both lists of an inventory response.
// Requirement ids must be unique across the two lists.
func ValidateRequirementSet(set *domain.RequirementSet) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[domain.Identifier]string)

	check := func(list string, reqs []domain.Requirement) {
		for i, r := range reqs {
			field := fmt.Sprintf("%s[%d]", list, i)
			errs = append(errs, ValidateRequirement(field, r)...)
			if r.ID == "" {
				continue
			}
			if prev, dup := seen[r.ID]; dup {
				errs.Add(field+".id", r.ID.String(), "duplicate requirement id, also at "+prev)
				continue
			}
			seen[r.ID] = field
		}
	}
	check("existingRequirements", set.ExistingRequirements)
	check("newRequirements", set.NewRequirements)
	return errs
}
