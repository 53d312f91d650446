package categorizer

// 提示词使用英文，主流模型对英文指令的遵循度更稳定；评论正文原样嵌入，不做翻译

const learnTopicsInstruction = `Analyze the following comments and identify the main topics they discuss.
Consider the granularity of topics: too few topics oversimplify the content, while too many create redundancy and blur the overall structure.
Where a topic clearly splits into distinct themes, list those themes as subtopics; otherwise leave the topic without subtopics.
Output JSON only, with no extra commentary, in exactly this form:
{"topics":[{"name":"Topic Name","subtopics":[{"name":"Subtopic Name"}]}]}
Omit the "subtopics" field for topics without subtopics.`

const categorizeInstruction = `Assign each of the following comments to one or more of the candidate topics given in the additional context.
Each comment line starts with its identifier in square brackets, like [123] comment text.
Only use topic and subtopic names that appear in the candidate list; never invent new ones.
Assign a comment to a subtopic only when it clearly fits; assigning just the parent topic is acceptable.
Output JSON only, with no extra commentary, in exactly this form:
{"categorizations":[{"commentId":"123","topics":[{"name":"Topic Name","subtopics":[{"name":"Subtopic Name"}]}]}]}
Omit the "subtopics" field when no subtopic applies.`
