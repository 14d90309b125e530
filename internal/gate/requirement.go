package gate

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// translateRequirement rewrites a rubygems version requirement into a
// constraint string semver understands. Requirements arrive as a
// comma-separated list, each entry an operator and an operand:
//
//	">= 2.7"        ">= 2.5, < 4"        "~> 3.1.0"
//
// The pessimistic operator pins the release segment one level above the
// operand's last component, which maps to caret for one- and two-part
// operands and tilde for three-part ones.
func translateRequirement(req string) (string, error) {
	parts := strings.Split(req, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op, operand := splitRequirement(part)
		operand = normalizeOperand(operand)
		if operand == "" {
			return "", fmt.Errorf("gate: empty operand in requirement %q", req)
		}
		switch op {
		case "~>":
			if strings.Count(operand, ".") >= 2 {
				out = append(out, "~"+operand)
			} else {
				out = append(out, "^"+operand)
			}
		case "=", "":
			out = append(out, operand)
		case ">=", "<=", ">", "<", "!=":
			out = append(out, op+operand)
		default:
			return "", fmt.Errorf("gate: unsupported operator %q in requirement %q", op, req)
		}
	}
	if len(out) == 0 {
		return "", fmt.Errorf("gate: empty requirement")
	}
	return strings.Join(out, ", "), nil
}

// satisfies evaluates a rubygems requirement against a toolchain
// version. An empty requirement is unconstrained.
func satisfies(req string, version *semver.Version) (bool, error) {
	if strings.TrimSpace(req) == "" {
		return true, nil
	}
	expr, err := translateRequirement(req)
	if err != nil {
		return false, err
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return false, fmt.Errorf("gate: bad requirement %q: %w", req, err)
	}
	return c.Check(version), nil
}

func splitRequirement(part string) (op, operand string) {
	i := 0
	for i < len(part) && !isVersionByte(part[i]) {
		i++
	}
	return strings.TrimSpace(part[:i]), strings.TrimSpace(part[i:])
}

// normalizeOperand drops segments past the third; rubygems allows
// arbitrarily deep versions, semver does not.
func normalizeOperand(operand string) string {
	segs := strings.Split(operand, ".")
	if len(segs) > 3 {
		segs = segs[:3]
	}
	return strings.Join(segs, ".")
}

func isVersionByte(b byte) bool {
	return b >= '0' && b <= '9'
}
