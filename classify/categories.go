package classify

// Category is a labeled group of exemplar descriptions. A message whose
// embedding sits closer to a skip category than to every personal exemplar
// (by more than the configured margin) is classified as non-personal, and
// the verdict carries the category label for diagnostics.
type Category struct {
	Label     string
	Exemplars []string
}

// SkipCategories describe content that carries no durable personal signal.
// The exemplars are prose descriptions of each content class; they are
// embedded once per embedder and compared against incoming messages.
var SkipCategories = []Category{
	{
		Label: "technical",
		Exemplars: []string{
			"programming language syntax, data types like string or integer, algorithm logic, function, method, class, object-oriented paradigm, variable scope, control flow, import, module, package, library, framework, recursion, iteration",
			"error handling, exception, stack trace, TypeError, NullPointerException, IndexError, segmentation fault, stack overflow, runtime vs compile-time error, assertion failed, syntax error, null pointer dereference, memory leak, bug",
			"terminal command line shell prompt, bash, zsh, powershell. Filesystem navigation: cd, ls, pwd. File management: mkdir, rm, cp, mv, chmod. Text processing with grep, sed, awk, cat. Version control with git: clone, commit, push, pull",
			"API design, endpoint, REST, GraphQL, RPC. HTTP methods: GET, POST, PUT, DELETE. HTTP status codes: 404 Not Found, 500 Internal Server Error, 403 Forbidden, 200 OK. Request-response cycle, payload, authentication token, JWT, OAuth",
			"data interchange formats, serialization, parsing. JSON object, array, key-value pair. XML tags, attributes. YAML indentation, TOML, CSV, config file, env variables, dictionary, map, protocol buffers",
			"querying a database, SQL statement, table, column, row, index, primary key, foreign key, join, select, insert, update, delete, relational vs NoSQL, MongoDB, PostgreSQL, MySQL, Redis, schema, transaction",
			"container orchestration, cluster management, service scaling, load balancing, Kubernetes, Docker, image registry, Dockerfile, cloud computing platforms, AWS, Azure, GCP, virtual machine, serverless, Lambda",
			"algorithm analysis, O(log n) time complexity, data structures, hash table, array, linked list, queue, stack, heap, graph, depth-first search, breadth-first search, sorting algorithms like merge sort and quicksort",
			"software testing, unit test, assertion, mock, stub, fixture, test suite, test case, automated QA, JUnit, pytest, Jest. Application logging, log levels like INFO, WARN, ERROR, DEBUG, timestamps, monitoring, observability",
			"regex pattern, regular expression matching, capturing groups, metacharacters, wildcards, quantifiers, character classes, lookaheads, alternation, anchors, word boundary, multiline flag",
		},
	},
	{
		Label: "formatting",
		Exemplars: []string{
			"format the output as structured data. Return the answer as JSON with specific keys and values, or as YAML. Organize information into a CSV file or a database-style table with columns and rows. Present as a list of objects or an array.",
			"style the text presentation. Use markdown formatting like bullet points, a numbered list, or a task list. Organize content into a grid or tabular layout with proper alignment. Create a hierarchical structure with nested elements for clarity.",
			"adjust the response length. Make the answer shorter, more concise, brief, or condensed. Summarize the key points. Trim down the text to reduce the overall word count or meet a specific character limit. Be less verbose and more direct.",
			"change the explanation depth. Make the response more detailed, comprehensive, and elaborate. Expand on previous points and go into more depth. Provide a thorough, in-depth analysis. Explain the topic with more complexity and nuance.",
			"rewrite the previous response. Rephrase, paraphrase, or reformulate the answer using different wording. Restate the information in another way. Alter the tone to be more formal, academic, casual, or conversational.",
			"continue the generated response. Keep going with the explanation or list. Provide more information and finish your thought. Complete the rest of the content. Proceed with the next steps. Do not stop until you have concluded.",
			"explain the concept in simpler terms. Break down the topic step-by-step for a beginner. Clarify a confusing point. Explain it like I'm five years old. Use an analogy or a concrete example to help me understand the idea clearly.",
		},
	},
	{
		Label: "arithmetic",
		Exemplars: []string{
			"perform a pure arithmetic calculation with explicit numbers. Solve, multiply, add, subtract, and divide. Compute a numeric expression following the order of operations. What is 23 plus 456 minus 78 times 9 divided by 3?",
			"convert units between measurement systems with numeric values. Convert 100 kilometers to miles, 72 fahrenheit to celsius, or 5 feet 9 inches to centimeters. Change between metric and imperial for distance, weight, volume, or temperature.",
			"calculate a percentage of a number. What is 25 percent of 800? Determine the price after a 30% discount. Compute a 15% tip on a $65.40 bill. Calculate sales tax, compound interest, a monthly mortgage payment, ROI, or APR.",
			"solve an algebraic equation for a variable like x. For the equation 2x + 5 = 15, find the value of x. Use the quadratic formula. Perform a geometry calculation: find the area of a circle with a radius of 5, or the square root of 144.",
			"compute descriptive statistics for a dataset of numbers like 12, 15, 18, 20, 22. Calculate the mean, median, mode, average, and standard deviation. Find the variance, range, quartiles, and percentiles for a given sample.",
			"calculate the time difference between two dates. How many days, hours, or minutes are between two points in time? Find the duration or elapsed time. Act as an age calculator for a birthday or find the time until a future anniversary.",
		},
	},
	{
		Label: "translation",
		Exemplars: []string{
			"translate the explicitly quoted text 'Hello, how are you?' to a foreign language like Spanish, French, or German. This is a translation instruction that includes the word 'translate' and the source text in quotes for direct conversion.",
			"how do you say a specific word or phrase in another language? For example, how do you say 'thank you', 'computer', or 'goodbye' in Japanese, Chinese, or Korean? A request for a direct translation of a common expression or term.",
			"convert a block of text or a paragraph from a source language to a target language. Translate the following content to Italian, Arabic, Portuguese, or Russian. A language conversion request for a larger piece of provided text.",
			"what is the foreign language word for 'house', 'beautiful', or 'water'? Provide the translation for these common vocabulary words in Italian, Swedish, or another language. A request for single-word vocabulary translation.",
			"provide the formal and professional translation for 'Please find the attached document for your review' in French. Translate this business email phrase to German, ensuring the register is appropriate for a corporate context.",
		},
	},
	{
		Label: "proofreading",
		Exemplars: []string{
			"proofread the following text for errors. Here is my draft, please check it for typos and mistakes: 'Teh quick brown fox jumpped'. Review, revise, and correct any misspellings or grammatical issues you find in the provided passage.",
			"correct the grammar in this sentence: 'She don't like it'. Resolve grammatical issues like subject-verb agreement, incorrect verb tense, pronoun reference errors, or misplaced modifiers in the provided text.",
			"check the spelling and punctuation in this passage. Please review the following text and correct any textual errors: 'its a beautiful day, isnt it'. Amend mistakes with commas, periods, apostrophes, or capitalization.",
			"rewrite this sentence from passive voice to active voice. Help me make my writing more direct and concise. Suggest a better word choice or alternative phrasing. Refine the expression for better clarity, tone, or style.",
			"improve the clarity and flow of this paragraph. Make the writing smoother and more readable. Identify and eliminate wordiness, filler words, and repetitive phrases to strengthen the overall quality of the writing.",
		},
	},
}

// PersonalExemplars describe content worth remembering about a user.
var PersonalExemplars = []string{
	"discussing my family members, like my spouse, children, parents, or siblings. Mentioning relatives by name or role, such as my husband, wife, son, daughter, mother, or father. Sharing stories or asking questions about my family.",
	"expressing lasting personal feelings, core values, beliefs, or principles. My worldview, deeply held opinions, philosophy, or moral standards. Things I love, hate, or feel strongly about in life, such as my passion for animal welfare.",
	"describing my established personal hobbies, regular activities, or consistent interests. My passions and what I do in my leisure time, such as creative outlets like painting, sports like hiking, or other recreational pursuits I enjoy.",
	"sharing information about my career or current job. My position, workplace, company name, or professional role. My responsibilities at work, my occupation, or the industry I work in. My employment situation, job title, and employer.",
	"talking about my major life plans, long-term aspirations, or personal goals. My dreams for the future, important intentions, and what I want to achieve. Milestones, ambitions, or a bucket list. My personal vision or mission in life.",
	"reflecting on a meaningful personal story, memory, or significant past life experience. A transformative event or milestone that shaped me. A defining moment, a lesson learned from my childhood, or a memory from growing up that I cherish.",
	"sharing my personal background, like my hometown, childhood upbringing, or education. My cultural heritage, ethnicity, or where I grew up. Information about the university I graduated from or formative experiences that define my identity.",
	"asking for personal advice about a specific life situation, relationship, family decision, or career choice. Seeking guidance on a personal challenge, problem, or dilemma I'm facing. Needing help or counsel on a difficult issue.",
	"requesting personalized recommendations based on my stated context, preferences, or needs. For example, suggesting a movie based on genres I like, or a restaurant that fits my dietary restrictions, budget, and location requirements.",
	"mentioning my pet, such as my dog, cat, or another animal companion. I adopted a puppy, or I have a cat named Luna. Discussing my pet's breed, age, behavior, or my general feelings about animals, pet care, and pet ownership.",
	"discussing moving or relocating to a new city, state, or country. I just moved into a new apartment or house. The personal reasons for my move, like a job or family. The process of settling into a new home or neighborhood.",
	"stating my long-term dietary preference or restriction, such as being vegetarian, vegan, pescatarian, gluten-free, or having a food allergy. My eating habits and favorite cuisines, based on health, ethical, or personal reasons.",
	"describing my living situation. I live with roommates, alone, with my parents, or with a partner. I bought or rented a house or apartment. My home environment, housing arrangements, and household composition in my current residence.",
	"describing my fitness routine or exercise habits. I go to the gym, run, do yoga, or swim regularly. My consistent activities for health and wellness, my workout regimen, or my training schedule and fitness goals.",
	"discussing a personal achievement or milestone. I got promoted, received an award, won a competition, or completed a marathon. A significant accomplishment I am proud of, a goal I reached, or a success that marked a personal triumph.",
}
