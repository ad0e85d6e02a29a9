package menu

import "github.com/cdss/cdss-web/internal/core/role"

// labelOverrides adjusts a node's display text for specific roles without
// touching the tree the backend delivered. Entries here win over the node's
// own per-role label map.
var labelOverrides = map[string]map[role.Role]string{
	"PATIENT_LIST": {
		role.Doctor:        "Patient List",
		role.Nurse:         "Patient Management",
		role.Patient:       "My Medical Records",
		role.SystemManager: "Patient Management",
	},
	"DASHBOARD": {
		role.Doctor:        "Physician Dashboard",
		role.Nurse:         "Nursing Dashboard",
		role.Lab:           "Laboratory Dashboard",
		role.Imaging:       "Radiology Dashboard",
		role.Admin:         "Admin Dashboard",
		role.SystemManager: "System Dashboard",
	},
}

// Label resolves the display text for a node as seen by the given role.
// Resolution order: override table, the node's per-role label map, the
// node's default label, and finally the raw node id. The id fallback should
// not occur with a well-formed tree but keeps navigation rendering total.
func Label(n *Node, r role.Role) string {
	if byRole, ok := labelOverrides[n.ID]; ok {
		if text, ok := byRole[r]; ok {
			return text
		}
	}
	if text, ok := n.Labels[r]; ok {
		return text
	}
	if n.DefaultLabel != "" {
		return n.DefaultLabel
	}
	return n.ID
}
