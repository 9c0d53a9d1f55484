package services

import (
	"fmt"
	"slices"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// TemplateValidator checks that a set of manufacture templates is consistent
// with the catalog it will be planned against
type TemplateValidator struct{}

// NewTemplateValidator creates a new template validator
func NewTemplateValidator() *TemplateValidator {
	return &TemplateValidator{}
}

// ValidationResult contains the results of template validation
type ValidationResult struct {
	HasCycles          bool
	CyclePaths         [][]entities.ProductCode
	DuplicateTemplates []entities.ProductCode
	UnknownCodes       []entities.ProductCode
	Errors             []string
	Warnings           []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks templates against the catalog items. Duplicate templates
// and cycles are errors. Codes missing from the catalog are only warnings
// since planning skips those templates.
func (v *TemplateValidator) Validate(items []*entities.CatalogItem, templates []*entities.ManufactureTemplate) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:         make([][]entities.ProductCode, 0),
		DuplicateTemplates: make([]entities.ProductCode, 0),
		UnknownCodes:       make([]entities.ProductCode, 0),
		Errors:             make([]string, 0),
		Warnings:           make([]string, 0),
	}

	known := make(map[entities.ProductCode]bool, len(items))
	for _, item := range items {
		known[item.Code] = true
	}

	result.DuplicateTemplates = v.detectDuplicates(templates)
	result.UnknownCodes = v.detectUnknownCodes(templates, known)

	cycles := v.detectCycles(v.buildAdjacencyMap(templates))
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	for _, code := range result.DuplicateTemplates {
		result.Errors = append(result.Errors, fmt.Sprintf("template for %s is declared more than once", code))
	}
	for _, code := range result.UnknownCodes {
		result.Warnings = append(result.Warnings, fmt.Sprintf("template references unknown code %s", code))
	}
	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("template cycle detected: %v", cycle))
	}

	return result
}

// buildAdjacencyMap maps each product to the codes it consumes
func (v *TemplateValidator) buildAdjacencyMap(templates []*entities.ManufactureTemplate) map[entities.ProductCode][]entities.ProductCode {
	adjacencyMap := make(map[entities.ProductCode][]entities.ProductCode, len(templates))

	for _, template := range templates {
		children := adjacencyMap[template.ProductCode]
		for _, ingredient := range template.Ingredients {
			if !slices.Contains(children, ingredient.Code) {
				children = append(children, ingredient.Code)
			}
		}
		adjacencyMap[template.ProductCode] = children
	}

	return adjacencyMap
}

// detectCycles runs a DFS from every product in a stable order
func (v *TemplateValidator) detectCycles(adjacencyMap map[entities.ProductCode][]entities.ProductCode) [][]entities.ProductCode {
	visited := make(map[entities.ProductCode]bool)
	onStack := make(map[entities.ProductCode]bool)
	cycles := make([][]entities.ProductCode, 0)

	parents := make([]entities.ProductCode, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	slices.Sort(parents)

	for _, parent := range parents {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacencyMap, visited, onStack, nil, &cycles)
		}
	}

	return cycles
}

func (v *TemplateValidator) dfsDetectCycle(
	current entities.ProductCode,
	adjacencyMap map[entities.ProductCode][]entities.ProductCode,
	visited map[entities.ProductCode]bool,
	onStack map[entities.ProductCode]bool,
	path []entities.ProductCode,
	cycles *[][]entities.ProductCode,
) {
	visited[current] = true
	onStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, onStack, path, cycles)
			continue
		}
		if !onStack[child] {
			continue
		}

		start := slices.Index(path, child)
		if start != -1 {
			cycle := make([]entities.ProductCode, 0, len(path)-start+1)
			cycle = append(cycle, path[start:]...)
			cycle = append(cycle, child) // close the cycle
			*cycles = append(*cycles, cycle)
		}
	}

	onStack[current] = false
}

func (v *TemplateValidator) detectDuplicates(templates []*entities.ManufactureTemplate) []entities.ProductCode {
	seen := make(map[entities.ProductCode]bool, len(templates))
	duplicates := make([]entities.ProductCode, 0)

	for _, template := range templates {
		if seen[template.ProductCode] {
			duplicates = append(duplicates, template.ProductCode)
			continue
		}
		seen[template.ProductCode] = true
	}

	return duplicates
}

// detectUnknownCodes lists each missing code once, in first-seen order
func (v *TemplateValidator) detectUnknownCodes(templates []*entities.ManufactureTemplate, known map[entities.ProductCode]bool) []entities.ProductCode {
	reported := make(map[entities.ProductCode]bool)
	unknown := make([]entities.ProductCode, 0)

	report := func(code entities.ProductCode) {
		if !known[code] && !reported[code] {
			reported[code] = true
			unknown = append(unknown, code)
		}
	}

	for _, template := range templates {
		report(template.ProductCode)
		for _, ingredient := range template.Ingredients {
			report(ingredient.Code)
		}
	}

	return unknown
}
