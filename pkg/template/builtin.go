package template

import "github.com/conductor-ai/conductor/pkg/models"

// DefaultRegistry returns a registry preloaded with the built-in templates.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	for _, template := range []*WorkflowTemplate{
		FullDevelopmentTemplate(),
		QuickImplementationTemplate(),
		CodeReviewTemplate(),
		DocumentationTemplate(),
		SecurityAuditTemplate(),
	} {
		// Built-in names are distinct, registration cannot collide.
		_ = registry.Register(template)
	}

	return registry
}

// FullDevelopmentTemplate covers planning, implementation, QA, security
// review, and documentation with all five roles.
func FullDevelopmentTemplate() *WorkflowTemplate {
	pmID := newTaskTemplateID()
	devID := newTaskTemplateID()
	qaID := newTaskTemplateID()
	securityID := newTaskTemplateID()
	docsID := newTaskTemplateID()

	return &WorkflowTemplate{
		ID:       newTaskTemplateID(),
		Name:     "Full Development Workflow",
		Description: "Complete development workflow for {project_name}. " +
			"Includes planning, implementation, QA, security review, and documentation.",
		Category: CategoryDevelopment,
		Config: Config{
			Mode:                 models.ModeSequential,
			MaxIterations:        models.DefaultMaxIterations,
			EnableEvaluation:     true,
			EnableCorrectionLoop: true,
			Verbose:              true,
		},
		RequiredParams: []string{"project_name", "project_description"},
		OptionalParams: map[string]string{
			"tech_stack":   "Python",
			"requirements": "None specified",
		},
		Tags:    []string{"full", "development", "complete", "all-agents"},
		Version: "1.0.0",
		TaskTemplates: []TaskTemplate{
			{
				ID:           pmID,
				NameTemplate: "Project Planning: {project_name}",
				DescriptionTemplate: "Analyze the following project and create a detailed implementation plan:\n\n" +
					"Project: {project_name}\n" +
					"Description: {project_description}\n" +
					"Tech Stack: {tech_stack}\n" +
					"Requirements: {requirements}\n\n" +
					"Create a task breakdown with priorities and dependencies.",
				AssignedTo: models.RolePM,
				ExpectedOutputTemplate: "A detailed project plan for {project_name} with task breakdown, " +
					"timeline, and resource allocation.",
				Priority: models.PriorityHigh,
			},
			{
				ID:           devID,
				NameTemplate: "Implementation: {project_name}",
				DescriptionTemplate: "Implement the solution for {project_name} based on the project plan.\n\n" +
					"Requirements:\n{project_description}\n\n" +
					"Use {tech_stack} and follow best practices.",
				AssignedTo:             models.RoleDev,
				ExpectedOutputTemplate: "Working implementation of {project_name} with clean, documented code.",
				Priority:               models.PriorityHigh,
				DependsOn:              []string{pmID},
			},
			{
				ID:           qaID,
				NameTemplate: "QA Review: {project_name}",
				DescriptionTemplate: "Review the implementation of {project_name} for quality.\n" +
					"Check for bugs, edge cases, and code quality issues.\n" +
					"Ensure the implementation meets requirements.",
				AssignedTo:             models.RoleQA,
				ExpectedOutputTemplate: "QA report with test results, found issues, and recommendations.",
				Priority:               models.PriorityHigh,
				DependsOn:              []string{devID},
			},
			{
				ID:           securityID,
				NameTemplate: "Security Review: {project_name}",
				DescriptionTemplate: "Perform security review of {project_name}.\n" +
					"Check for common vulnerabilities, security best practices, and compliance requirements.",
				AssignedTo:             models.RoleSecurity,
				ExpectedOutputTemplate: "Security assessment report with vulnerabilities and remediation steps.",
				Priority:               models.PriorityHigh,
				DependsOn:              []string{devID},
			},
			{
				ID:           docsID,
				NameTemplate: "Documentation: {project_name}",
				DescriptionTemplate: "Create comprehensive documentation for {project_name}.\n" +
					"Include setup instructions, API documentation, and usage examples.",
				AssignedTo:             models.RoleDocs,
				ExpectedOutputTemplate: "Complete documentation including README, API docs, and examples.",
				Priority:               models.PriorityMedium,
				DependsOn:              []string{devID, qaID},
			},
		},
	}
}

// QuickImplementationTemplate is a two-step template for prototypes: build
// then a basic review, with the correction loop off for speed.
func QuickImplementationTemplate() *WorkflowTemplate {
	devID := newTaskTemplateID()

	return &WorkflowTemplate{
		ID:   newTaskTemplateID(),
		Name: "Quick Implementation",
		Description: "Rapid development workflow for {feature_name}. " +
			"Focuses on implementation and basic testing.",
		Category: CategoryDevelopment,
		Config: Config{
			Mode:                 models.ModeSequential,
			MaxIterations:        3,
			EnableEvaluation:     true,
			EnableCorrectionLoop: false,
			Verbose:              true,
		},
		RequiredParams: []string{"feature_name", "feature_description"},
		OptionalParams: map[string]string{"tech_stack": "Python"},
		Tags:           []string{"quick", "prototype", "fast", "development"},
		Version:        "1.0.0",
		TaskTemplates: []TaskTemplate{
			{
				ID:           devID,
				NameTemplate: "Implement: {feature_name}",
				DescriptionTemplate: "Quickly implement {feature_name}.\n\n" +
					"Description: {feature_description}\n" +
					"Tech Stack: {tech_stack}\n\n" +
					"Focus on functionality over perfection.",
				AssignedTo:             models.RoleDev,
				ExpectedOutputTemplate: "Working implementation of {feature_name}.",
				Priority:               models.PriorityHigh,
			},
			{
				ID:                     newTaskTemplateID(),
				NameTemplate:           "Basic Review: {feature_name}",
				DescriptionTemplate:    "Perform basic testing of {feature_name}.",
				AssignedTo:             models.RoleQA,
				ExpectedOutputTemplate: "Basic test results and any critical issues.",
				Priority:               models.PriorityMedium,
				DependsOn:              []string{devID},
			},
		},
	}
}

// CodeReviewTemplate runs quality and security reviews in parallel.
func CodeReviewTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:          newTaskTemplateID(),
		Name:        "Code Review Workflow",
		Description: "Review {code_subject} for quality, security, and documentation.",
		Category:    CategoryReview,
		Config: Config{
			Mode:                 models.ModeParallel,
			MaxIterations:        models.DefaultMaxIterations,
			EnableEvaluation:     true,
			EnableCorrectionLoop: false,
			Verbose:              true,
		},
		RequiredParams: []string{"code_subject", "code_location"},
		OptionalParams: map[string]string{"focus_areas": "all"},
		Tags:           []string{"review", "code-review", "quality", "security"},
		Version:        "1.0.0",
		TaskTemplates: []TaskTemplate{
			{
				ID:           newTaskTemplateID(),
				NameTemplate: "Quality Review: {code_subject}",
				DescriptionTemplate: "Review {code_subject} at {code_location} for code quality.\n" +
					"Focus areas: {focus_areas}\n" +
					"Check for bugs, code style, and maintainability.",
				AssignedTo:             models.RoleQA,
				ExpectedOutputTemplate: "Quality review report with findings and recommendations.",
				Priority:               models.PriorityHigh,
			},
			{
				ID:           newTaskTemplateID(),
				NameTemplate: "Security Review: {code_subject}",
				DescriptionTemplate: "Security audit of {code_subject} at {code_location}.\n" +
					"Check for vulnerabilities and security best practices.",
				AssignedTo:             models.RoleSecurity,
				ExpectedOutputTemplate: "Security review report with vulnerabilities and remediation.",
				Priority:               models.PriorityHigh,
			},
		},
	}
}

// DocumentationTemplate plans and writes documentation for a subject.
func DocumentationTemplate() *WorkflowTemplate {
	pmID := newTaskTemplateID()

	return &WorkflowTemplate{
		ID:          newTaskTemplateID(),
		Name:        "Documentation Workflow",
		Description: "Create documentation for {subject}.",
		Category:    CategoryDocumentation,
		Config: Config{
			Mode:                 models.ModeSequential,
			MaxIterations:        models.DefaultMaxIterations,
			EnableEvaluation:     true,
			EnableCorrectionLoop: true,
			Verbose:              true,
		},
		RequiredParams: []string{"subject", "subject_description"},
		OptionalParams: map[string]string{
			"doc_type": "README and API documentation",
			"audience": "developers",
		},
		Tags:    []string{"documentation", "docs", "readme", "api-docs"},
		Version: "1.0.0",
		TaskTemplates: []TaskTemplate{
			{
				ID:           pmID,
				NameTemplate: "Documentation Plan: {subject}",
				DescriptionTemplate: "Plan documentation structure for {subject}.\n" +
					"Subject: {subject_description}\n" +
					"Documentation type: {doc_type}\n" +
					"Target audience: {audience}",
				AssignedTo:             models.RolePM,
				ExpectedOutputTemplate: "Documentation outline with sections and content plan.",
				Priority:               models.PriorityHigh,
			},
			{
				ID:           newTaskTemplateID(),
				NameTemplate: "Write Documentation: {subject}",
				DescriptionTemplate: "Create {doc_type} for {subject}.\n" +
					"Description: {subject_description}\n" +
					"Audience: {audience}",
				AssignedTo:             models.RoleDocs,
				ExpectedOutputTemplate: "Complete documentation with examples.",
				Priority:               models.PriorityHigh,
				DependsOn:              []string{pmID},
			},
		},
	}
}

// SecurityAuditTemplate plans an audit, runs it, and documents remediation.
func SecurityAuditTemplate() *WorkflowTemplate {
	pmID := newTaskTemplateID()
	securityID := newTaskTemplateID()

	return &WorkflowTemplate{
		ID:          newTaskTemplateID(),
		Name:        "Security Audit Workflow",
		Description: "Comprehensive security audit for {system_name}.",
		Category:    CategorySecurity,
		Config: Config{
			Mode:                 models.ModeSequential,
			MaxIterations:        5,
			EnableEvaluation:     true,
			EnableCorrectionLoop: true,
			Verbose:              true,
		},
		RequiredParams: []string{"system_name", "system_description"},
		OptionalParams: map[string]string{
			"compliance_standards": "OWASP Top 10",
			"scope":                "full system",
		},
		Tags:    []string{"security", "audit", "compliance", "vulnerability"},
		Version: "1.0.0",
		TaskTemplates: []TaskTemplate{
			{
				ID:           pmID,
				NameTemplate: "Security Audit Plan: {system_name}",
				DescriptionTemplate: "Plan security audit for {system_name}.\n" +
					"Description: {system_description}\n" +
					"Scope: {scope}\n" +
					"Compliance: {compliance_standards}",
				AssignedTo:             models.RolePM,
				ExpectedOutputTemplate: "Security audit plan with methodology and checklist.",
				Priority:               models.PriorityCritical,
			},
			{
				ID:           securityID,
				NameTemplate: "Security Audit: {system_name}",
				DescriptionTemplate: "Perform security audit of {system_name}.\n" +
					"Follow {compliance_standards} guidelines.\n" +
					"Scope: {scope}",
				AssignedTo:             models.RoleSecurity,
				ExpectedOutputTemplate: "Security audit report with vulnerabilities, risk ratings, and remediation.",
				Priority:               models.PriorityCritical,
				DependsOn:              []string{pmID},
			},
			{
				ID:                     newTaskTemplateID(),
				NameTemplate:           "Remediation Guide: {system_name}",
				DescriptionTemplate:    "Create remediation documentation for security findings in {system_name}.",
				AssignedTo:             models.RoleDocs,
				ExpectedOutputTemplate: "Remediation guide with step-by-step fix instructions.",
				Priority:               models.PriorityHigh,
				DependsOn:              []string{securityID},
			},
		},
	}
}
