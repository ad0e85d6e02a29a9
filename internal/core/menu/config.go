package menu

import "github.com/cdss/cdss-web/internal/core/role"

// DefaultTree returns the built-in navigation tree. It mirrors the menu
// catalog the clinical backend serves and is used when the backend omits a
// tree (fresh installs) and as the fixture base for tests. Grants are still
// always server-confirmed; shipping the catalog grants nothing by itself.
func DefaultTree() *Tree {
	return &Tree{Roots: []*Node{
		{
			ID:           "DASHBOARD",
			Path:         "/dashboard",
			Icon:         "home",
			DefaultLabel: "Dashboard",
			Labels: map[role.Role]string{
				role.Doctor: "Physician Dashboard",
				role.Nurse:  "Nursing Dashboard",
			},
		},
		{
			ID:           "PATIENT",
			DefaultLabel: "Patients",
			Children: []*Node{
				{
					ID:           "PATIENT_LIST",
					Path:         "/patients",
					Icon:         "users",
					DefaultLabel: "Patient Management",
				},
				{
					ID:             "PATIENT_DETAIL",
					Path:           "/patients/:patientId",
					BreadcrumbOnly: true,
					DefaultLabel:   "Patient Detail",
				},
			},
		},
		{
			ID:           "ORDER",
			DefaultLabel: "Orders",
			Children: []*Node{
				{
					ID:           "ORDER_LIST",
					Path:         "/orders",
					Icon:         "clipboard",
					DefaultLabel: "Lab & Imaging Orders",
					Labels: map[role.Role]string{
						role.Nurse: "Order Status",
					},
				},
				{
					ID:           "ORDER_CREATE",
					Path:         "/orders/create",
					DefaultLabel: "Create Order",
				},
			},
		},
		{
			ID:           "IMAGING",
			DefaultLabel: "Imaging",
			Children: []*Node{
				{
					ID:           "IMAGE_VIEWER",
					Path:         "/imaging",
					Icon:         "image",
					DefaultLabel: "Image Review",
					Labels: map[role.Role]string{
						role.Imaging: "Radiology Reading",
					},
				},
				{
					ID:           "RIS_WORKLIST",
					Path:         "/ris/worklist",
					DefaultLabel: "Reading Worklist",
				},
			},
		},
		{
			ID:           "AI_SUMMARY",
			Path:         "/ai",
			Icon:         "brain",
			DefaultLabel: "AI Analysis Summary",
			Labels: map[role.Role]string{
				role.Nurse: "AI Result Review",
			},
		},
		{
			ID:           "LAB",
			DefaultLabel: "Laboratory",
			Children: []*Node{
				{
					ID:           "LAB_RESULT_UPLOAD",
					Path:         "/lab/upload",
					Icon:         "flask",
					DefaultLabel: "Upload Lab Results",
				},
				{
					ID:           "LAB_RESULT_VIEW",
					Path:         "/lab",
					DefaultLabel: "Lab Results",
				},
			},
		},
		{
			ID:           "ADMIN",
			DefaultLabel: "Administration",
			Children: []*Node{
				{
					ID:           "ADMIN_USER",
					Path:         "/admin/users",
					Icon:         "settings",
					DefaultLabel: "User Management",
				},
				{
					ID:           "ADMIN_MENU_PERMISSION",
					Path:         "/admin/permissions",
					DefaultLabel: "Menu Permissions",
				},
				{
					ID:           "ADMIN_AUDIT_LOG",
					Path:         "/admin/audit",
					DefaultLabel: "Access Audit Log",
				},
				{
					ID:           "ADMIN_SYSTEM_MONITOR",
					Path:         "/admin/monitor",
					DefaultLabel: "System Monitoring",
				},
			},
		},
	}}
}
