package rules

import "github.com/digimosa/gdpr-scan/internal/models"

// Region tags carried by rules. Profiles in the enrich package decide which
// of them appear on a finding.
const (
	TagGDPRArt5  = "GDPR-Art5"
	TagGDPRArt6  = "GDPR-Art6"
	TagGDPRArt9  = "GDPR-Art9"
	TagGDPRArt10 = "GDPR-Art10"
	TagGDPRArt22 = "GDPR-Art22"
	TagGDPRArt32 = "GDPR-Art32"
	TagGDPRArt87 = "GDPR-Art87"
	TagGDPRArt88 = "GDPR-Art88"
	TagUAVG      = "UAVG"
	TagBDSG      = "BDSG"
	TagCNIL      = "CNIL"
)

const originBuiltin = "builtin"

// Defaults returns the built-in catalogue. Each call returns fresh values.
func Defaults() []PatternRule {
	secretTags := []string{TagGDPRArt32}
	return []PatternRule{
		// Provider secrets.
		{
			ID:             "aws_access_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b((?:AKIA|ASIA|ABIA|ACCA)[0-9A-Z]{16})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.95,
			RiskLevel:      models.RiskHigh,
			Type:           "AWS_ACCESS_KEY",
			Description:    "AWS access key id",
			MinEntropy:     3.0,
			RegionTags:     secretTags,
		},
		{
			ID:             "aws_secret_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`(?i)aws_?secret_?(?:access_?)?key\s*[=:]\s*['"]?([A-Za-z0-9/+=]{40})`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "AWS_SECRET_KEY",
			Description:    "AWS secret access key assignment",
			MinEntropy:     3.5,
			Keywords:       []string{"aws"},
			RegionTags:     secretTags,
		},
		{
			ID:             "github_token",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(gh[pousr]_[A-Za-z0-9]{36})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.95,
			RiskLevel:      models.RiskHigh,
			Type:           "GITHUB_TOKEN",
			MinEntropy:     3.0,
			Keywords:       []string{"gh"},
			RegionTags:     secretTags,
		},
		{
			ID:             "github_fine_grained_pat",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(github_pat_[A-Za-z0-9_]{82})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.95,
			RiskLevel:      models.RiskHigh,
			Type:           "GITHUB_TOKEN",
			MinEntropy:     3.0,
			Keywords:       []string{"github_pat_"},
			RegionTags:     secretTags,
		},
		{
			ID:             "gitlab_pat",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(glpat-[A-Za-z0-9_\-]{20})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.95,
			RiskLevel:      models.RiskHigh,
			Type:           "GITLAB_TOKEN",
			MinEntropy:     3.0,
			Keywords:       []string{"glpat-"},
			RegionTags:     secretTags,
		},
		{
			ID:             "stripe_secret_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b((?:sk|rk)_(?:live|test)_[A-Za-z0-9]{16,})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "API_KEY",
			Description:    "Stripe secret or restricted key",
			MinEntropy:     3.0,
			Keywords:       []string{"_live_", "_test_"},
			RegionTags:     secretTags,
		},
		{
			ID:             "slack_token",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[A-Za-z0-9\-]*)\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "SLACK_TOKEN",
			Keywords:       []string{"xox"},
			RegionTags:     secretTags,
		},
		{
			ID:             "slack_webhook",
			Category:       models.CategorySecret,
			Matcher:        Regex(`https://hooks\.slack\.com/services/T[A-Za-z0-9_]+/B[A-Za-z0-9_]+/[A-Za-z0-9_]+`),
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "WEBHOOK_URL",
			Keywords:       []string{"hooks.slack.com"},
			RegionTags:     secretTags,
		},
		{
			ID:             "google_api_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(AIza[0-9A-Za-z_\-]{35})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "API_KEY",
			MinEntropy:     3.0,
			Keywords:       []string{"aiza"},
			RegionTags:     secretTags,
		},
		{
			ID:             "openai_api_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(sk-(?:proj-)?[A-Za-z0-9_\-]{32,})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "API_KEY",
			MinEntropy:     3.5,
			Keywords:       []string{"sk-"},
			RegionTags:     secretTags,
		},
		{
			ID:             "anthropic_api_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(sk-ant-(?:api|admin)[0-9]{2}-[A-Za-z0-9_\-]{32,})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.97,
			RiskLevel:      models.RiskHigh,
			Type:           "API_KEY",
			MinEntropy:     3.5,
			Keywords:       []string{"sk-ant-"},
			RegionTags:     secretTags,
		},
		{
			ID:             "sendgrid_api_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(SG\.[A-Za-z0-9_\-]{22}\.[A-Za-z0-9_\-]{43})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.95,
			RiskLevel:      models.RiskHigh,
			Type:           "API_KEY",
			MinEntropy:     3.5,
			Keywords:       []string{"sg."},
			RegionTags:     secretTags,
		},
		{
			ID:             "npm_token",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(npm_[A-Za-z0-9]{36})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "NPM_TOKEN",
			MinEntropy:     3.0,
			Keywords:       []string{"npm_"},
			RegionTags:     secretTags,
		},
		{
			ID:             "private_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`-----BEGIN (?:[A-Z]+ )?PRIVATE KEY(?: BLOCK)?-----`),
			ConfidenceBase: 0.99,
			RiskLevel:      models.RiskHigh,
			Type:           "PRIVATE_KEY",
			Keywords:       []string{"private key"},
			RegionTags:     secretTags,
		},
		{
			ID:             "database_uri",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b((?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?)://[^:\s/@]+:[^@\s]+@[^\s/'"]+)`),
			SecretGroup:    1,
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "CREDENTIALS",
			Description:    "connection string with embedded credentials",
			Keywords:       []string{"://"},
			RegionTags:     secretTags,
		},
		{
			ID:             "jwt",
			Category:       models.CategorySecret,
			Matcher:        Regex(`\b(eyJ[A-Za-z0-9_\-]{10,}\.eyJ[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,})`),
			SecretGroup:    1,
			ConfidenceBase: 0.85,
			RiskLevel:      models.RiskMedium,
			Type:           "JWT",
			Keywords:       []string{"eyj"},
			RegionTags:     secretTags,
		},
		{
			ID:             "generic_api_key",
			Category:       models.CategorySecret,
			Matcher:        Regex(`(?i)\b(?:api[_\-]?key|apikey|access[_\-]?token|auth[_\-]?token|client[_\-]?secret)\b["']?\s*[=:]\s*["']?([A-Za-z0-9_\-\.]{16,})`),
			SecretGroup:    1,
			ConfidenceBase: 0.6,
			RiskLevel:      models.RiskMedium,
			Type:           "API_KEY",
			MinEntropy:     3.0,
			Generic:        true,
			Keywords:       []string{"key", "token", "secret"},
			RegionTags:     secretTags,
		},
		{
			ID:             "password_assignment",
			Category:       models.CategorySecret,
			Matcher:        Regex(`(?i)\b(?:password|passwd|pwd|secret)\b["']?\s*[=:]\s*["']([^"'\s]{8,})["']`),
			SecretGroup:    1,
			ConfidenceBase: 0.5,
			RiskLevel:      models.RiskMedium,
			Type:           "PASSWORD",
			MinEntropy:     2.5,
			Generic:        true,
			Keywords:       []string{"pass", "pwd", "secret"},
			RegionTags:     secretTags,
		},
		{
			ID:             "high_entropy_token",
			Category:       models.CategorySecret,
			Matcher:        EntropyThreshold(4.5),
			ConfidenceBase: 0.4,
			RiskLevel:      models.RiskLow,
			Type:           "HIGH_ENTROPY_STRING",
			MinLength:      20,
			Generic:        true,
			RegionTags:     secretTags,
		},

		// General PII.
		{
			ID:             "email",
			Category:       models.CategoryPII,
			Matcher:        Regex(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
			ConfidenceBase: 0.85,
			RiskLevel:      models.RiskMedium,
			Type:           "EMAIL",
			Keywords:       []string{"@"},
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt6},
		},
		{
			ID:             "phone_international",
			Category:       models.CategoryPII,
			Matcher:        Regex(`(?:^|[^\w+])(\+[1-9][0-9 \-]{7,16}[0-9])`),
			SecretGroup:    1,
			ConfidenceBase: 0.6,
			RiskLevel:      models.RiskMedium,
			Type:           "PHONE",
			Keywords:       []string{"+"},
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt6},
		},
		{
			ID:             "iban",
			Category:       models.CategoryPII,
			Matcher:        Checksum(ChecksumIBAN),
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskMedium,
			Type:           "IBAN",
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt32},
		},
		{
			ID:             "credit_card",
			Category:       models.CategoryPII,
			Matcher:        Checksum(ChecksumLuhn),
			ConfidenceBase: 0.9,
			RiskLevel:      models.RiskHigh,
			Type:           "CREDIT_CARD",
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt32},
		},
		{
			ID:             "ipv4_address",
			Category:       models.CategoryPII,
			Matcher:        Regex(`\b((?:(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9]))\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.5,
			RiskLevel:      models.RiskLow,
			Type:           "IP_ADDRESS",
			Keywords:       []string{"."},
			RegionTags:     []string{TagGDPRArt5},
		},
		{
			ID:             "date_of_birth",
			Category:       models.CategoryPII,
			Matcher:        Regex(`(?i)\b(?:dob|date_?of_?birth|birth_?date|birthdate|geboortedatum|geburtsdatum)\b["']?\s*[=:]\s*["']?(\d{1,4}[\-/.]\d{1,2}[\-/.]\d{1,4})`),
			SecretGroup:    1,
			ConfidenceBase: 0.8,
			RiskLevel:      models.RiskMedium,
			Type:           "DATE_OF_BIRTH",
			Keywords:       []string{"dob", "birth", "geboorte", "geburt"},
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt6},
		},
		{
			ID:       "national_id_field",
			Category: models.CategoryPII,
			Matcher: LiteralSet("passport_number", "passportnumber", "social_security_number",
				"national_id", "steuer_id", "steuernummer", "reisepassnummer", "numero_secu", "numero_securite_sociale"),
			ConfidenceBase: 0.4,
			RiskLevel:      models.RiskMedium,
			Type:           "NATIONAL_ID",
			RegionTags:     []string{TagGDPRArt87, TagBDSG, TagCNIL},
		},
		{
			ID:       "special_category_field",
			Category: models.CategoryPII,
			Matcher: LiteralSet("medical_record", "health_status", "religion", "ethnicity", "sexual_orientation",
				"political_opinion", "trade_union", "criminal_record", "genetic_data", "konfession", "gewerkschaft"),
			ConfidenceBase: 0.4,
			RiskLevel:      models.RiskMedium,
			Type:           "SPECIAL_CATEGORY",
			RegionTags:     []string{TagGDPRArt9, TagGDPRArt10, TagBDSG, TagCNIL},
		},
		{
			ID:       "financial_field",
			Category: models.CategoryPII,
			Matcher: LiteralSet("account_number", "card_number", "cvv", "tax_id", "vat_id",
				"kontonummer", "bankverbindung", "kreditkarte", "karteninhaber", "ust_idnr"),
			ConfidenceBase: 0.4,
			RiskLevel:      models.RiskLow,
			Type:           "FINANCIAL_FIELD",
			RegionTags:     []string{TagGDPRArt5, TagBDSG},
		},

		// Dutch-specific.
		{
			ID:             "bsn",
			Category:       models.CategoryDutch,
			Matcher:        Checksum(ChecksumBSN),
			ConfidenceBase: 0.85,
			RiskLevel:      models.RiskHigh,
			Type:           "BSN",
			Description:    "Burgerservicenummer (11-proef)",
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt87, TagUAVG},
		},
		{
			ID:             "phone_nl",
			Category:       models.CategoryDutch,
			Matcher:        Regex(`\b(0[1-9](?:[ \-]?[0-9]){8})\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.6,
			RiskLevel:      models.RiskMedium,
			Type:           "PHONE",
			RegionTags:     []string{TagGDPRArt5, TagUAVG},
		},
		{
			ID:             "nl_postcode_address",
			Category:       models.CategoryDutch,
			Matcher:        Regex(`\b([1-9][0-9]{3} ?[A-Z]{2})\s*,?\s*(?:huisnummer|nr\.?)?\s*([0-9]{1,5}[a-zA-Z]?)\b`),
			ConfidenceBase: 0.55,
			RiskLevel:      models.RiskMedium,
			Type:           "ADDRESS",
			Description:    "Dutch postcode with house number",
			RegionTags:     []string{TagGDPRArt5, TagUAVG},
		},
		{
			ID:       "nl_health_record",
			Category: models.CategoryDutch,
			Matcher: LiteralSet("zorgverzekering", "zorgverzekeraar", "medisch dossier", "medisch_dossier",
				"patientnummer", "patiëntnummer", "huisarts", "polisnummer"),
			ConfidenceBase: 0.5,
			RiskLevel:      models.RiskHigh,
			Type:           "HEALTH_DATA",
			RegionTags:     []string{TagGDPRArt9, TagUAVG},
		},
		{
			ID:       "nl_employment_record",
			Category: models.CategoryDutch,
			Matcher: LiteralSet("personeelsnummer", "loonstrook", "arbeidsongeschiktheid", "verzuimregistratie",
				"ziekteverzuim", "salarisadministratie"),
			ConfidenceBase: 0.5,
			RiskLevel:      models.RiskMedium,
			Type:           "EMPLOYMENT_DATA",
			RegionTags:     []string{TagGDPRArt88, TagUAVG},
		},

		// AI processing patterns.
		{
			ID:             "ai_biometric_processing",
			Category:       models.CategoryAIPattern,
			Matcher:        Regex(`(?i)\b(face_recognition|deepface|insightface|facenet|face_mesh|emotion[_\-]?(?:recognition|detection|classifier))\b`),
			SecretGroup:    1,
			ConfidenceBase: 0.6,
			RiskLevel:      models.RiskHigh,
			Type:           "BIOMETRIC_PROCESSING",
			Description:    "biometric or emotion inference library",
			RegionTags:     []string{TagGDPRArt9, TagGDPRArt22, TagCNIL},
			Principles:     []string{"lawfulness", "purpose_limitation"},
		},
		{
			ID:             "ai_training_export",
			Category:       models.CategoryAIPattern,
			Matcher:        Regex(`(?i)\b(?:train|training|finetune|fine_tune)[_\-]?(?:data|set|dataset)\b.*\b(?:email|phone|bsn|address|birth|ssn|name)\b`),
			ConfidenceBase: 0.45,
			RiskLevel:      models.RiskMedium,
			Type:           "AI_TRAINING_DATA",
			Description:    "personal data flowing into a training set",
			Keywords:       []string{"train", "tune"},
			RegionTags:     []string{TagGDPRArt5, TagGDPRArt22},
			Principles:     []string{"purpose_limitation", "data_minimisation"},
		},
	}
}
