package pipeline

import (
	"fmt"
	"strings"
)

const fence = "```"

const outlinePromptTmpl = `Create a comprehensive outline for a technology document covering these technologies: %s

The document should have:
1. An introduction section
2. A dedicated section for each technology covering:
   - Overview and description
   - Latest version and recent updates
   - Key features and capabilities
   - Use cases and applications
   - Pros and cons
3. A comparison section
4. A conclusion section

Please format the response as YAML with this structure:

` + fence + `yaml
title: "Technology Overview: [list of technologies]"
sections:
  - name: "Introduction"
    subsections:
      - "Purpose of this document"
      - "Technologies covered"
  - name: "[Technology 1 Name]"
    subsections:
      - "Overview"
      - "Latest Version and Updates"
      - "Key Features"
      - "Use Cases"
      - "Pros and Cons"
  # ... repeat for each technology
  - name: "Technology Comparison"
    subsections:
      - "Feature comparison"
      - "Performance considerations"
  - name: "Conclusion"
    subsections:
      - "Summary"
      - "Recommendations"
` + fence + `
`

const writePromptTmpl = `Write a comprehensive technology document based on the following outline and research data.

OUTLINE:
%s

RESEARCH DATA:
%s

INSTRUCTIONS:
1. Follow the outline structure exactly
2. Use the research data to provide accurate, up-to-date information
3. Write in a professional, informative tone
4. Include specific version numbers and recent updates where available
5. Make each section substantial and informative (at least 2-3 paragraphs per subsection)
6. Use markdown formatting for headings, lists, and emphasis
7. Ensure the document flows well and is cohesive

Start with the title as an H1 heading and structure the content according to the outline.
`

func outlinePrompt(technologies []string) string {
	return fmt.Sprintf(outlinePromptTmpl, strings.Join(technologies, ", "))
}

func writePrompt(outlineYAML, researchSummary string) string {
	return fmt.Sprintf(writePromptTmpl, outlineYAML, researchSummary)
}

// researchQueries are the sub-queries issued per technology.
func researchQueries(technology string) []string {
	return []string{
		fmt.Sprintf("%s latest version and recent updates", technology),
		fmt.Sprintf("%s key features and capabilities", technology),
		fmt.Sprintf("what is %s overview and use cases", technology),
	}
}

// extractYAML pulls the fenced yaml block out of a model reply. Replies
// without a fence are returned whole, trimmed: some models answer with bare
// YAML.
func extractYAML(reply string) string {
	start := strings.Index(reply, fence+"yaml")
	if start == -1 {
		return strings.TrimSpace(reply)
	}
	rest := reply[start+len(fence)+4:]
	end := strings.Index(rest, fence)
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
