package analyzer

const (
	DefaultAnalysisSystem = "You are a historical analyst specializing in the JFK assassination."
	DefaultSummarySystem  = "You are a historical researcher specializing in the JFK assassination."
	DefaultReportTitle    = "Why was President Kennedy assassinated?"
)

// DefaultAnalysisTemplate is filled with the document text as {{.text}}.
const DefaultAnalysisTemplate = `You are an expert historian and intelligence analyst reviewing declassified JFK assassination documents.
Based on the following document excerpt, please:
1. Identify key information related to potential motives for Kennedy's assassination
2. Note any suspicious activities, connections, or entities mentioned
3. Look for information about Lee Harvey Oswald and his potential connections
4. Extract details about any conspiracy theories supported by the documents
5. Identify any cover-up attempts or inconsistencies in the official narrative

Document excerpt:
{{.text}}

Provide a detailed, objective analysis focusing only on information present in this excerpt that might help answer
"Why was President Kennedy assassinated?" Do not speculate beyond what's in the text.
`

// DefaultSummaryTemplate is filled with the concatenated analyses as {{.analyses}}.
const DefaultSummaryTemplate = `You are a historical researcher compiling a comprehensive report on "Why was President Kennedy assassinated?"
based on the analysis of declassified documents. Using the following analyses from various documents, synthesize
a detailed report that:

1. Presents the most credible theories on Kennedy's assassination based on evidence
2. Explores potential motives from various angles (political, geopolitical, personal)
3. Examines key figures involved and their relationships
4. Identifies gaps, contradictions, or suspicious elements in the official narrative
5. Provides a chronological timeline of events leading to the assassination
6. Concludes with the most likely explanation based on the available evidence

Analyses from various documents:
{{.analyses}}

Create a detailed, well-structured report with sections, citations to specific documents when possible, and a
conclusion that offers your assessment on the most probable explanation for Kennedy's assassination based on
this documentary evidence.
`
