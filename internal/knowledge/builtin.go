package knowledge

// builtinEntries is the knowledge table the bot ships with. Declaration order
// is the tie-break priority when two entries score the same.
var builtinEntries = []Entry{
	{
		ID:       "scholarships",
		Keywords: []string{"scholarship", "scholarships", "funding", "financial aid", "abroad", "overseas", "international"},
		Answer: "There are many scholarship options for Burmese students studying abroad:\n\n" +
			"• **Government & bilateral**: Chevening (UK), Fulbright (USA), Australian Awards, MEXT (Japan), KGSP (Korea).\n" +
			"• **University-specific**: Most universities offer merit and need-based scholarships—check each university’s website.\n" +
			"• **Private/NG Os**: DAAD (Germany), Erasmus+, and organizations like Open Society Foundations sometimes support students from Myanmar.\n\n" +
			"Tip: Start early, meet deadlines, and prepare strong recommendation letters and personal statements. I can help you narrow down by country or level (undergrad/master).",
	},
	{
		ID:       "ossd",
		Keywords: []string{"ossd", "ontario", "canadian"},
		Answer: "**OSSD (Ontario Secondary School Diploma)** is the high school diploma from Ontario, Canada. It’s widely accepted for university entry globally.\n\n" +
			"• You can complete OSSD through online/international schools or by studying in Ontario.\n" +
			"• Credits are earned per course; you need 30 credits (18 compulsory + 12 optional), plus community hours and the literacy requirement.\n" +
			"• Good option if you’re aiming for Canadian or international universities and want a flexible, recognized pathway.",
	},
	{
		ID:       "ged",
		Keywords: []string{"ged", "general educational development", "high school equivalency"},
		Answer: "**GED** is a high school equivalency credential accepted by many universities and employers worldwide.\n\n" +
			"• Tests: Reasoning through Language Arts, Mathematical Reasoning, Science, Social Studies.\n" +
			"• You can prepare via online courses or local GED prep centers; exams are often offered at test centers (including in some cities in the region).\n" +
			"• Accepted by many US and international colleges as equivalent to high school graduation. Check each university’s admissions page to confirm.",
	},
	{
		ID:       "a-levels",
		Keywords: []string{"a level", "a-level", "alevel", "advanced level", "cambridge"},
		Answer: "**A-Levels** (Cambridge or other boards) are two-year, subject-based qualifications widely used for university entry in the UK, Commonwealth, and beyond.\n\n" +
			"• Usually 3–4 subjects. Grades A*–E; universities often ask for specific grades (e.g. AAB).\n" +
			"• In Myanmar, some international schools and centers offer A-Level programs. You can also study via distance learning or overseas.\n" +
			"• Strong choice if you’re targeting UK, Australian, or Hong Kong universities.",
	},
	{
		ID:       "igcse",
		Keywords: []string{"igcse", "gcse", "cambridge international", "o level"},
		Answer: "**IGCSE** (International General Certificate of Secondary Education) is typically taken at age 14–16 and is a solid foundation before A-Levels or other pre-university programs.\n\n" +
			"• Offered by Cambridge and other exam boards; many subjects available.\n" +
			"• In Myanmar, several international schools offer IGCSE. You can also study online/distance.\n" +
			"• Good for building a strong base before OSSD, A-Levels, or foundation year.",
	},
	{
		ID:       "foundation",
		Keywords: []string{"foundation", "foundation year", "pathway", "pre-university", "pre uni"},
		Answer: "**Foundation programs** are usually one-year courses that prepare you for direct entry into year 1 of a degree, especially if your current qualification isn’t directly equivalent.\n\n" +
			"• Common in UK, Australia, and some Asian universities. Often include academic English and subject modules.\n" +
			"• Good if you’ve done IGCSE/O-Level or local Myanmar education and want a structured bridge to a foreign degree.\n" +
			"• Can be done in-country (e.g. at branch campuses) or abroad. I can help you think about which country or university.",
	},
	{
		ID:       "myanmar",
		Keywords: []string{"myanmar", "burma", "local", "pathway in myanmar", "education in myanmar"},
		Answer: "In Myanmar, common pathways for studying abroad include:\n\n" +
			"• **Local international schools**: IGCSE, A-Levels, or other curricula that lead to overseas university applications.\n" +
			"• **Foundation/bridge programs**: Some are offered locally or online before you go abroad.\n" +
			"• **Exams**: GED, OSSD (online), or A-Levels (at exam centers or through schools) can be part of your pathway.\n\n" +
			"Tell me your current level (e.g. Grade 10, finished high school) and target country so I can suggest a clearer path.",
	},
	{
		ID:       "greeting",
		Keywords: []string{"hello", "hi", "hey", "help", "start", "what can you do"},
		Generic:  true,
		Answer: "Hello! I’m your education counselor for Burmese students. I can help with:\n\n" +
			"📚 **Pathways**: OSSD, GED, A-Levels, IGCSE, foundation programs\n" +
			"🌍 **Scholarships abroad** and how to prepare\n" +
			"🇲🇲 **Education options in Myanmar** and next steps\n\n" +
			"Ask me anything—e.g. “What is OSSD?”, “Scholarships for UK”, or “Foundation program options.”",
	},
	{
		ID:       "uk",
		Keywords: []string{"uk", "britain", "united kingdom", "chevening", "british"},
		Answer: "**UK options** for Burmese students:\n\n" +
			"• **Chevening**: Full scholarship for one-year master's. Opens around Aug–Nov; apply early.\n" +
			"• **University scholarships**: Many UK universities offer partial/full scholarships—check their websites.\n" +
			"• **A-Levels or foundation** can lead to UK degree entry.",
	},
	{
		ID:       "usa",
		Keywords: []string{"usa", "america", "us", "united states", "fulbright", "american"},
		Answer:   "**USA options**: **Fulbright** for graduate study (competitive). US universities often offer merit/need-based aid. **GED** is widely accepted for college entry.",
	},
	{
		ID:       "australia",
		Keywords: []string{"australia", "australian", "australian awards"},
		Answer:   "**Australia**: **Australia Awards** (government scholarships). Australian universities also offer scholarships. Foundation/pathway programs are common.",
	},
	{
		ID:       "japan",
		Keywords: []string{"japan", "japanese", "mext", "japan government"},
		Answer:   "**Japan**: **MEXT** (Japanese Government Scholarship) covers tuition, stipend, sometimes flight. Apply via embassy or university. Japanese language prep often required.",
	},
	{
		ID:       "korea",
		Keywords: []string{"korea", "korean", "kgsp", "korean government"},
		Answer:   "**Korea**: **KGSP** = full scholarship for undergrad or graduate study. Check official KGSP website. Korean universities also offer their own scholarships.",
	},
	{
		ID:       "canada",
		Keywords: []string{"canada", "canadian", "study in canada"},
		Answer:   "**Canada**: **OSSD** (Ontario diploma) is a strong pathway; can be done online or in Ontario. Canadian universities offer scholarships for international students.",
	},
	{
		ID:       "english-tests",
		Keywords: []string{"ielts", "toefl", "english test", "english requirement", "language requirement"},
		Answer:   "**English**: **IELTS** and **TOEFL** are most common; universities state minimum scores (e.g. IELTS 6.0–6.5). Foundation programs often include English prep.",
	},
	{
		ID:       "deadlines",
		Keywords: []string{"deadline", "when to apply", "application date"},
		Answer:   "**When to apply**: Scholarship deadlines are often 6–12 months before start. Universities have rolling or set deadlines. Prepare transcripts, recommendation letters, and personal statement early.",
	},
	{
		ID:       "recommendations",
		Keywords: []string{"recommendation", "reference", "recommendation letter", "referee"},
		Answer:   "**Recommendation letters**: Choose teachers/supervisors who know your work. Give them time and your CV. Most programs want 2–3 letters.",
	},
	{
		ID:       "personal-statement",
		Keywords: []string{"personal statement", "statement of purpose", "sop", "motivation letter", "essay"},
		Answer:   "**Personal statement**: Explain why this subject and level; mention experience and goals. Be specific, stay within word limit, proofread.",
	},
	{
		ID:       "undergraduate",
		Keywords: []string{"undergraduate", "bachelor", "bachelor's", "undergrad", "first degree"},
		Answer:   "**Undergraduate** entry: A-Levels, OSSD, GED, or foundation year. Tell me your current level and target country for specific advice.",
	},
	{
		ID:       "masters",
		Keywords: []string{"master", "masters", "graduate", "ms", "ma", "mba", "postgraduate"},
		Answer:   "**Master's**: Many scholarships target master's (Chevening, Fulbright, Australia Awards). Need a bachelor's; strong recommendation letters and SOP matter.",
	},
	{
		ID:       "online",
		Keywords: []string{"online", "distance", "remote", "study online"},
		Answer:   "**Online**: OSSD can be done through accredited online schools. GED prep/exams in many locations. Some universities offer online degrees. I can help choose a pathway.",
	},
	{
		ID:       "costs",
		Keywords: []string{"cost", "fee", "fees", "expensive", "how much", "tuition"},
		Answer:   "**Costs**: Scholarships can cover tuition and living costs. Without one, tuition varies by country. I can help with scholarship and affordable options.",
	},
	{
		ID:       "thanks",
		Keywords: []string{"thanks", "thank you", "bye", "goodbye", "ok", "okay"},
		Generic:  true,
		Answer:   "You're welcome! Ask anytime about scholarships, OSSD, GED, A-Levels, IGCSE, or foundation programs. Good luck!",
	},
	{
		ID:       "identity",
		Keywords: []string{"who are you", "what are you", "robot", "bot", "ai", "counselor"},
		Generic:  true,
		Answer:   "I'm an education counselor bot for Burmese students. I help with scholarships, OSSD, GED, A-Levels, IGCSE, foundation programs, and pathways in Myanmar. Ask me anything in that area!",
	},
}

// DefaultFallback is returned whenever no better answer is available.
const DefaultFallback = "I’m not sure I have a specific answer for that. I can help with:\n\n" +
	"• Scholarships abroad for Burmese students\n" +
	"• OSSD, GED, A-Levels, IGCSE\n" +
	"• Foundation and pre-university programs\n" +
	"• Education pathways in Myanmar\n\n" +
	"Try asking in a bit more detail (e.g. “What is GED?” or “Scholarships for studying in Australia”) and I’ll do my best to help."
