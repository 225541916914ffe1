package jira

import (
	"encoding/json"
	"strings"
)

// ParagraphADF wraps text in an ADF (Atlassian Document Format) document
// holding a single paragraph. Empty text yields an empty paragraph, since
// Jira rejects empty text nodes.
func ParagraphADF(text string) json.RawMessage {
	return adfDoc([]interface{}{adfParagraph(text)})
}

// PlainTextToADF converts plain text to an ADF document with one paragraph
// per line.
func PlainTextToADF(text string) json.RawMessage {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var content []interface{}
	for _, para := range strings.Split(text, "\n") {
		content = append(content, adfParagraph(para))
	}
	return adfDoc(content)
}

func adfParagraph(text string) map[string]interface{} {
	if text == "" {
		return map[string]interface{}{
			"type":    "paragraph",
			"content": []interface{}{},
		}
	}
	return map[string]interface{}{
		"type": "paragraph",
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": text,
			},
		},
	}
}

func adfDoc(content []interface{}) json.RawMessage {
	doc := map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}

	data, _ := json.Marshal(doc)
	return data
}
