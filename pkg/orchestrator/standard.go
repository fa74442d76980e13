package orchestrator

import (
	"fmt"

	"github.com/conductor-ai/conductor/pkg/models"
)

// CreateStandardWorkflow builds the canonical five-task development
// workflow: PM plans, Dev implements, QA and Security review, Docs
// documents. Dependencies wire Dev to PM, QA to PM+Dev, Security to Dev,
// and Docs to PM+Dev.
func CreateStandardWorkflow(projectDescription, name string) *models.Workflow {
	if name == "" {
		name = "Standard Development Workflow"
	}

	workflow := models.NewWorkflow(name, projectDescription, models.DefaultWorkflowConfig())

	pmTask := models.NewTask(
		"Project Analysis and Planning",
		fmt.Sprintf(
			"Analyze the following project requirements and create a detailed plan:\n\n%s\n\n"+
				"Create a breakdown of tasks, identify key requirements, "+
				"and outline the implementation approach.",
			projectDescription,
		),
		models.RolePM,
	)
	pmTask.ExpectedOutput = "A detailed project plan with task breakdown and timeline"
	workflow.AddTask(pmTask)

	devTask := models.NewTask(
		"Implementation",
		"Based on the project plan, implement the solution. "+
			"Write clean, well-structured code following best practices.",
		models.RoleDev,
	)
	devTask.ExpectedOutput = "Implemented solution with code"
	devTask.ContextTasks = []string{pmTask.ID}
	workflow.AddTask(devTask)

	qaTask := models.NewTask(
		"Quality Assurance Review",
		"Review the implementation for quality. "+
			"Check for bugs, edge cases, and ensure it meets requirements.",
		models.RoleQA,
	)
	qaTask.ExpectedOutput = "QA report with findings and recommendations"
	qaTask.ContextTasks = []string{pmTask.ID, devTask.ID}
	workflow.AddTask(qaTask)

	securityTask := models.NewTask(
		"Security Review",
		"Review the implementation for security vulnerabilities. "+
			"Check for common security issues and compliance requirements.",
		models.RoleSecurity,
	)
	securityTask.ExpectedOutput = "Security report with findings and recommendations"
	securityTask.ContextTasks = []string{devTask.ID}
	workflow.AddTask(securityTask)

	docsTask := models.NewTask(
		"Documentation",
		"Create comprehensive documentation for the implementation. "+
			"Include usage examples, API documentation, and setup instructions.",
		models.RoleDocs,
	)
	docsTask.ExpectedOutput = "Complete documentation"
	docsTask.ContextTasks = []string{pmTask.ID, devTask.ID}
	workflow.AddTask(docsTask)

	return workflow
}
