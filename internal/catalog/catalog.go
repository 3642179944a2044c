// Package catalog holds the grievance category definitions: which fields
// each category's form needs and how to extract them from conversation.
package catalog

// Category describes one grievance type.
type Category struct {
	ID             string
	FormRef        string
	RequiredFields []string
	Descriptions   map[string]string
}

// Conditional field rule: other_service is only required when the user
// picked the catch-all service type.
const (
	ConditionalField = "other_service"
	GoverningField   = "service_type"
	GoverningValue   = "other"
)

var categories = map[string]Category{
	"infrastructure": {
		ID:      "infrastructure",
		FormRef: "/forms/infrastructure",
		RequiredFields: []string{
			"full_name", "email", "mobile", "address", "issue_description",
			"issue_location", "issue_duration",
		},
		Descriptions: map[string]string{
			"full_name":         "The user's full name.",
			"email":             "The user's email address.",
			"mobile":            "The user's mobile phone number.",
			"address":           "The user's complete address where the issue is, or their contact address.",
			"issue_description": "A detailed description of the infrastructure problem (e.g. 'water leakage', 'potholes on road').",
			"issue_location":    "The exact location of the infrastructure issue (e.g. 'Main Street, near City Hall'). If not explicitly provided, try to infer from the address.",
			"issue_duration":    `How long the issue has been present. Map the user's description to one of these exact option values: "less_than_week", "one_to_four_weeks", "one_to_six_months", "six_to_twelve_months", "more_than_year". If unsure or no match, use an empty string.`,
		},
	},
	"corruption": {
		ID:      "corruption",
		FormRef: "/forms/corruption",
		RequiredFields: []string{
			"full_name", "email", "mobile", "department", "official_name",
			"incident_date", "incident_details", "witnesses",
		},
		Descriptions: map[string]string{
			"full_name":        "The complainant's full name.",
			"email":            "The complainant's email address.",
			"mobile":           "The complainant's mobile number.",
			"department":       "The government department or agency involved in the corruption.",
			"official_name":    "Name(s) of the official(s) involved, if known. Can be multiple names.",
			"incident_date":    "The date when the corruption incident occurred. Format as DD/MM/YYYY.",
			"incident_details": "A detailed description of the corruption incident.",
			"witnesses":        "Names or details of any witnesses to the incident, if applicable.",
		},
	},
	"funds": {
		ID:      "funds",
		FormRef: "/forms/funds",
		RequiredFields: []string{
			"full_name", "email", "mobile", "scheme_name", "application_date",
			"amount_requested", "purpose", "current_status", "issue_details",
		},
		Descriptions: map[string]string{
			"full_name":        "The applicant's full name.",
			"email":            "The applicant's email address.",
			"mobile":           "The applicant's mobile number.",
			"scheme_name":      "The name of the government scheme, program, or fund.",
			"application_date": "The date of application for the funds. Format as DD/MM/YYYY.",
			"amount_requested": "The amount of funds requested or expected (in Rupees). Extract as a number.",
			"purpose":          "The purpose for which the funds were requested or are to be used.",
			"current_status":   `The current status of the application or fund disbursement. Map to one of these exact option values: "not_applied", "application_submitted", "application_under_review", "application_approved", "partial_funds", "application_rejected", "other". If unsure or no match, use an empty string.`,
			"issue_details":    "A description of the specific issue the user is facing regarding the funds.",
		},
	},
	"government_service": {
		ID:      "government_service",
		FormRef: "/forms/govt_service",
		RequiredFields: []string{
			"full_name", "email", "mobile", "service_type", "other_service",
			"application_number", "application_date", "issue_details", "prior_followup",
		},
		Descriptions: map[string]string{
			"full_name":          "The applicant's full name.",
			"email":              "The applicant's email address.",
			"mobile":             "The applicant's mobile number.",
			"service_type":       `The type of government service. Map to one of these exact option values: "aadhar", "pan", "voter_id", "passport", "driving_license", "birth_certificate", "death_certificate", "income_certificate", "caste_certificate", "property_registration", "water_connection", "electricity_connection", "other". If unsure or no match, use an empty string.`,
			"other_service":      "If service_type is extracted as 'other', collect the specific service name here. Otherwise, leave empty.",
			"application_number": "The application or reference number, if any.",
			"application_date":   "The date of application for the service. Format as DD/MM/YYYY.",
			"issue_details":      "A detailed description of the issue faced with the government service.",
			"prior_followup":     `Whether the user has previously followed up on this issue and how. Map to one of these exact option values: "no", "phone", "email", "visit", "multiple". If unsure or no match, use an empty string.`,
		},
	},
}

// Lookup returns the category for an id.
func Lookup(id string) (Category, bool) {
	c, ok := categories[id]
	return c, ok
}

// IDs returns all category ids in a stable order.
func IDs() []string {
	return []string{"infrastructure", "corruption", "funds", "government_service"}
}

// RequiredFields returns the ordered field list for a category, or nil if
// the category is unknown.
func RequiredFields(id string) []string {
	c, ok := categories[id]
	if !ok {
		return nil
	}
	return c.RequiredFields
}

// FieldDescription returns the extraction description for a field. Unknown
// fields get a generic description rather than an error so prompt
// construction never fails mid-turn.
func FieldDescription(id, field string) string {
	c, ok := categories[id]
	if !ok {
		return ""
	}
	if d, ok := c.Descriptions[field]; ok {
		return d
	}
	return "Extract the user's " + field + " from the conversation. If not mentioned, use an empty string."
}

// FormRef returns the form reference for a category, or "" if unknown.
func FormRef(id string) string {
	return categories[id].FormRef
}
