package counselor

import "strings"

const baseRole = "You are a friendly, professional education counselor for Burmese students. " +
	"Keep replies helpful, clear, and concise (suitable for Messenger). Use simple language. " +
	"Answer the user's specific question directly—do not just repeat generic info or redirect. " +
	"If the question is outside education/counseling, politely redirect to education topics."

const topicsSuffix = " You help with: scholarships abroad, OSSD, GED, A-Levels, IGCSE, foundation programs, and education pathways in Myanmar."

const referenceInstruction = "\n\nUse the following reference information to answer the user's question. " +
	"If they ask something specific (e.g. deadline, eligibility, how to apply), answer based on this. " +
	"Do not say \"based on the reference\"—just answer naturally.\n\nReference:\n"

// SystemRole builds the generator's system prompt. A non-empty reference is
// appended as plain text context the answer should draw on.
func SystemRole(reference string) string {
	reference = ToPlainText(reference)
	if reference == "" {
		return baseRole + topicsSuffix
	}
	var b strings.Builder
	b.Grow(len(baseRole) + len(referenceInstruction) + len(reference))
	b.WriteString(baseRole)
	b.WriteString(referenceInstruction)
	b.WriteString(reference)
	return b.String()
}
