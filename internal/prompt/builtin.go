// internal/prompt/builtin.go
package prompt

import "github.com/fyrsmithlabs/knowledged/internal/schema"

// Builtins returns the prompt set the daemon and CLI register at startup.
func Builtins() []*Spec {
	return []*Spec{
		apiEndpointAnalyzer(),
		dataModel(),
		projectOverview(),
		frontend(),
		newFeature(),
	}
}

func apiEndpointAnalyzer() *Spec {
	authInfo := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"required": {Type: schema.TypeBoolean},
			"scheme":   schema.Optional(&schema.Schema{Type: schema.TypeString, Description: "e.g., JWT, Session, API Key, or None"}),
		},
		Required: []string{"required"},
	}
	inputParameter := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"name":        {Type: schema.TypeString},
			"data_type":   {Type: schema.TypeString, Description: "The primitive (string, int) or object type"},
			"location":    {Type: schema.TypeString, Enum: []any{"path", "query", "body", "header"}},
			"required":    {Type: schema.TypeBoolean},
			"description": schema.Optional(&schema.Schema{Type: schema.TypeString}),
		},
		Required: []string{"name", "data_type", "location", "required"},
	}
	outputField := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"name":        {Type: schema.TypeString},
			"data_type":   {Type: schema.TypeString, Description: "The primitive or object type returned"},
			"description": schema.Optional(&schema.Schema{Type: schema.TypeString}),
		},
		Required: []string{"name", "data_type"},
	}
	endpoint := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"identifier": {Type: schema.TypeString, Description: "The route path or method name"},
			"method":     {Type: schema.TypeString, Description: "GET, POST, RPC, WS, etc."},
			"summary":    {Type: schema.TypeString, Description: "What this endpoint does for a newcomer"},
			"file_path":  {Type: schema.TypeString, Description: "Source file location"},
			"auth":       authInfo,
			"inputs":     {Type: schema.TypeArray, Items: inputParameter, Description: "All required and optional inputs"},
			"outputs":    {Type: schema.TypeArray, Items: outputField, Description: "Fields included in a successful response"},
		},
		Required: []string{"identifier", "method", "summary", "file_path", "auth", "inputs", "outputs"},
	}
	doc := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"framework": {Type: schema.TypeString},
			"base_url":  schema.Optional(&schema.Schema{Type: schema.TypeString}),
			"endpoints": {Type: schema.TypeArray, Items: endpoint},
		},
		Required: []string{"framework", "endpoints"},
	}

	return &Spec{
		Name:        "api_endpoint_analyzer",
		Description: "Analyzes API endpoints and provides detailed information about their structure and functionality.",
		Mode:        ModeStructured,
		Schema:      doc,
		Template: `# Task: API Surface Area Extraction

## Objective
Act as a technical architect to map the backend API surface area. Your goal is to provide a clean, type-safe reference for developers onboarding to this codebase. You must identify every client-accessible entry point and document exactly what data it requires and returns.

## 1. Discovery Strategy (Pre-Analysis)
To ensure 100% coverage, your agentic search must:
1.  **Locate Route Registrations**: Search for router files, controller decorators (e.g., ` + "`@Get`, `@PostMapping`" + `), or framework-specific method exports (e.g., ` + "`Meteor.methods`" + `).
2.  **Identify Schemas**: Look for validation logic (Zod, Joi, Pydantic, DTO classes) to determine input/output shapes and data types.
3.  **Check Middleware**: Trace the route definitions to identify if authentication middleware is applied.

## 2. Extraction Scope
### Requirements:
- **Separation**: Keep ` + "`inputs`" + ` and ` + "`outputs`" + ` in separate lists for each endpoint.
- **Typing**: Every field must have a ` + "`data_type`" + `. Use the specific class name (e.g., ` + "`UserUpdateDTO`" + `) if it is a complex object.
- **Conciseness**: Descriptions should be one-sentence summaries of the field's purpose.

### Exclusions (Do Not Extract):
- Implementation logic or side effects (e.g., "Sends an email").
- Error scenarios (400, 401, 500 responses).
- Cache-control or Rate-limiting details.
- Hyperlinks to other endpoints.

## 3. Mandatory Reasoning Checklist
*Before outputting JSON, perform this internal verification:*

- [ ] **Discovery**: Have I scanned the entire directory for all possible routes?
- [ ] **Inputs**: Are all path, query, and body parameters listed in the ` + "`inputs`" + ` array?
- [ ] **Outputs**: Are the keys of the successful response object listed in the ` + "`outputs`" + ` array?
- [ ] **Type Check**: Does every single input and output have an explicit ` + "`data_type`" + `?
- [ ] **Auth Check**: Did I correctly identify if the route is public or protected?
- [ ] **Formatting**: Is the JSON structure flat (APIDocumentation -> Endpoint -> Input/Output)?

## 4. Final Output
Return a structured JSON object according to the schema. Ensure the documentation is "Developer-Ready" - meaning a developer could write a client-side fetch request solely based on your output.
`,
	}
}

func dataModel() *Spec {
	field := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"name":        {Type: schema.TypeString},
			"data_type":   {Type: schema.TypeString},
			"required":    {Type: schema.TypeBoolean},
			"description": schema.Optional(&schema.Schema{Type: schema.TypeString}),
		},
		Required: []string{"name", "data_type", "required"},
	}
	relationship := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"related_to":        {Type: schema.TypeString, Description: "Name of the related collection or table"},
			"relationship_type": {Type: schema.TypeString, Description: "e.g., one-to-many, many-to-one, many-to-many"},
			"description":       schema.Optional(&schema.Schema{Type: schema.TypeString}),
		},
		Required: []string{"related_to", "relationship_type"},
	}
	collection := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"name":          {Type: schema.TypeString},
			"type":          {Type: schema.TypeString, Description: "e.g., collection, table, view, cache"},
			"purpose":       {Type: schema.TypeString, Description: "Brief description of what this stores"},
			"fields":        {Type: schema.TypeArray, Items: field},
			"relationships": {Type: schema.TypeArray, Items: relationship},
		},
		Required: []string{"name", "type", "purpose", "fields", "relationships"},
	}
	model := &schema.Schema{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Schema{
			"overview":    {Type: schema.TypeString, Description: "High-level description of the data model, its purpose, and how to use it"},
			"framework":   {Type: schema.TypeString, Description: "e.g., Meteor, Express + Mongoose, Django"},
			"database":    {Type: schema.TypeString, Description: "e.g., MongoDB, PostgreSQL, Redis"},
			"collections": {Type: schema.TypeArray, Items: collection},
		},
		Required: []string{"overview", "framework", "database", "collections"},
	}

	return &Spec{
		Name:        "data_model",
		Description: "Analyzes and documents a codebase's complete data model structure",
		Mode:        ModeStructured,
		Schema:      model,
		Template: `# Data Model Documentation Task

## Objective
Analyze the codebase and create complete documentation of its data model. Document every collection/table with all of its fields, showing what data exists and how it connects together.

## What to Extract

### 1. System Overview
- What framework is being used? (e.g., Meteor, Express, Django, Rails)
- What database technology? (e.g., MongoDB, PostgreSQL, Redis)
- Brief overview: What is this data model for? What's its main purpose?

### 2. For Each Collection/Table
Extract:
- **Name**: The collection or table name
- **Type**: Collection, table, view, cache, or other storage type
- **Purpose**: One sentence explaining what data this stores
- **Fields**: Every field/column with its name, data type, whether it is required, and a brief description when helpful
- **Relationships**: How this connects to other collections: which collection it relates to, the type of relationship, and a brief description

## Where to Look
- ` + "`/models`, `/schemas`, `/collections`, `/entities`, `/api`" + ` directories
- Schema definition files
- Database migration files
- ORM/ODM model definitions

## What NOT to Extract
- Skip: indexes, constraints, default values, validators
- Skip: implementation details like middleware or hooks
- Focus on: structure and relationships only

## Output Requirements
- Include EVERY collection/table in the codebase
- Include EVERY field on each collection
- Keep descriptions short and clear (1 sentence)
- Use simple relationship terms anyone can understand

## Quality Checklist
Before submitting, verify:
- [ ] Overview explains what this data model is for
- [ ] All collections/tables are documented
- [ ] Every field on each collection is included
- [ ] Relationships between collections are clear
- [ ] Descriptions are concise and helpful
`,
	}
}

func projectOverview() *Spec {
	return &Spec{
		Name:        "project_overview",
		Description: "Provides a comprehensive overview of the entire codebase, including architecture, data flow, key components, and technology stack.",
		Mode:        ModeMarkdown,
		Template: `# Codebase Onboarding & Familiarization Prompt

## Primary Objective
Provide a comprehensive but concise overview of this codebase to enable a new developer to understand the architecture, navigate the project effectively, and start contributing with confidence.

## Analysis Instructions
Analyze the codebase and provide a structured onboarding guide that covers:

1. **Project Identity & Purpose**
   - What does this application do?

2. **Technology Stack**
   - Framework(s) and versions
   - Database/storage technology
   - Key libraries and their purposes
   - Build tools and package managers

3. **Architecture Overview**
   - High-level architectural pattern
   - How the application is structured (client/server, layers, modules)
   - Data flow: How information moves through the system
   - External dependencies and integrations

4. **Project Structure**
   - Directory organization and naming conventions
   - Where to find: routes/endpoints, business logic, data models, UI components, tests, configs
   - Important files that define the application (entry points, config files)

5. **Framework-Specific Patterns**
   - How does this framework structure applications?
   - Common patterns used in this codebase
   - Framework-specific conventions to be aware of

6. **Navigation Guide**
   - A suggested walkthrough path for exploring the codebase
   - Key files to read first
   - Typical workflow: "If you need to add X, you would modify Y"

## Output Format
Provide the output as a Markdown document with a quick summary, an architecture-at-a-glance section, a project structure tree with a "Where to Find What" table, the technology stack, framework patterns and conventions, a guided walkthrough, and a "Things to Know" section covering helpful patterns, gotchas, and security considerations.

## Key Requirements
- **Brevity**: Keep each section concise (2-4 sentences max per explanation)
- **Actionable**: Provide specific file paths, not vague directions
- **Progressive**: Start simple, layer in complexity
- **Visual**: Use directory trees, tables, and formatting for scannability
- **Practical**: Include real examples from the codebase
- **Friendly**: Write for someone who is capable but unfamiliar with this specific project

## Validation Checklist
Before returning the onboarding guide, verify:
- [ ] All file paths mentioned actually exist in the codebase
- [ ] The walkthrough provides a logical learning path
- [ ] Framework-specific patterns are accurately described
- [ ] The "Where to Find What" table is comprehensive but not exhaustive
- [ ] Code examples (if included) are real snippets from the project
- [ ] Technical terms are explained when first introduced
`,
	}
}

func frontend() *Spec {
	return &Spec{
		Name:        "frontend",
		Description: "Documents the frontend architecture: routes, components, state management, and API integration points.",
		Mode:        ModeMarkdown,
		Template: `# Frontend Architecture Documentation Task

## Objective
Analyze the frontend of this codebase and produce documentation that lets a developer understand its structure, navigate between routes and components, and extend the UI safely.

## What to Document

### 1. Architecture Summary
- Frontend framework and version (e.g., React 18, Vue 3)
- State management approach (e.g., Redux Toolkit, Context API, Pinia, local state only)
- Routing library and how routes are declared
- Styling approach (CSS Modules, Tailwind, styled-components, SCSS)
- Build tool if notable (Vite, webpack)

### 2. Routes / Pages
For each route: the path, the component that renders it, what the page does, whether it requires authentication, and which API endpoints it calls on load.

### 3. Key Components
For the important components: name, file path, type (page, layout, form, modal, container, presentational, utility), what it does, and notable props.

### 4. Data Fetching & State
- How components talk to the backend (fetch wrappers, hooks, generated clients)
- Where shared state lives and how it is updated
- Patterns for loading and error states

## Output Format
Return a Markdown document organized by the sections above, using tables for route and component inventories.

## Requirements
- Provide specific file paths for every route and component
- Keep descriptions to 1-2 sentences
- Cover every registered route; cover components selectively by importance
`,
	}
}

func newFeature() *Spec {
	return &Spec{
		Name:        "new_feature",
		Description: "Produces an implementation guide for adding a new feature: affected components, data flow, and impact analysis.",
		Mode:        ModeMarkdown,
		Template: `# Feature Implementation Guide

## Analysis Instructions

Analyze this codebase to create an implementation guide for a new feature. Structure your response in three sections:

### 1. Affected Components
Identify all code modules impacted: frontend components, backend endpoints/methods, data storage, state management, and utilities/services. For each, give the file path and a brief description of its relevance, and state the overall scope (single module, multiple related modules, or cross-cutting change).

### 2. Implementation Flow
Map out how the feature works through the system. Name a similar existing feature and where it lives, then trace the data flow step by step: user interaction, API call, backend processing, data persistence, and response/UI update. Call out key interaction patterns (e.g., client-side validation before API calls, optimistic updates with rollback).

### 3. Impact Analysis
Identify areas of concern, edge cases to consider, possible side effects (performance, security, data integrity, user experience), required changes in related features, and testing recommendations.

## Analysis Guidelines

**When identifying components:**
- Search by keywords from the requirements in file names, component names, function names
- Include both direct dependencies and indirect impacts

**When mapping data flow:**
- Start from user interaction where applicable
- Follow the path through each layer
- Note all state changes and side effects
- Reference similar existing features when found

**Keep it actionable:**
- Provide specific file paths, not vague locations
- Describe concrete changes, not abstract concepts
- Prioritize information by implementation order
- Flag blockers or dependencies clearly

If any item in the output format or the guidelines is not applicable, ignore it.
`,
	}
}
