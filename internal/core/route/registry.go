package route

// DefaultRegistry maps menu node ids to the SPA component identifiers the
// front-end bundle exports. The presentation layer owns this mapping; the
// resolver only consults it and skips ids it cannot find.
func DefaultRegistry() map[string]string {
	return map[string]string{
		"DASHBOARD":             "DashboardPage",
		"PATIENT_LIST":          "PatientListPage",
		"PATIENT_DETAIL":        "PatientDetailPage",
		"ORDER_LIST":            "OrderListPage",
		"ORDER_CREATE":          "OrderCreatePage",
		"IMAGE_VIEWER":          "ImageViewerPage",
		"RIS_WORKLIST":          "RISWorklistPage",
		"AI_SUMMARY":            "AISummaryPage",
		"LAB_RESULT_UPLOAD":     "LabUploadPage",
		"LAB_RESULT_VIEW":       "LabResultPage",
		"ADMIN_USER":            "UserManagementPage",
		"ADMIN_MENU_PERMISSION": "MenuPermissionPage",
		"ADMIN_AUDIT_LOG":       "AuditLogPage",
		"ADMIN_SYSTEM_MONITOR":  "SystemMonitorPage",
	}
}
