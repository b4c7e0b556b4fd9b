package dialogue

// messages holds the bot's wording for one locale. Entries with verbs are
// fmt format strings.
type messages struct {
	morning, afternoon, evening string
	welcome                     string // greeting, clinic

	menuSchedule, menuHours, menuHuman, menuList string
	backToMenu, notUnderstood                    string

	askName, invalidName   string
	askPhone, invalidPhone string // name
	askType, invalidType   string // phone
	consultation, exam     string

	askSpecialty, invalidSpecialty string
	askDoctor, invalidDoctor       string
	askDay, doctorChosen           string // doctor
	invalidDay, closedDay, noSlots string
	askTime                        string // date
	invalidTime, slotTaken         string // range

	summary                                  string // name, phone, type, specialty, doctor, date, time
	confirmYes, confirmRedo, confirmCancel   string
	confirmUnknown, draftCancelled           string
	confirmed, inviteReady                   string // name, type, specialty, date, time, phone
	conflictAtConfirm, conflictNoSlotsLeft   string // range
	persistenceNotice                        string
	reminder                                 string // name, specialty, date, start
	reminderYes, reminderNo, reminderUnknown string
	attendanceConfirmed, reminderCancelled   string

	handoverIntro                         string
	handoverQueue, handoverMessage        string
	queued, messageRecorded               string // position
	hours                                 string // weekday start, end, saturday start, end
	listEmpty, listHeader, listLine       string // date, time, name, specialty, id
	restarted                             string
	dayLabel                              string // label, iso
	noDoctor                              string
}

var catalogs = map[string]messages{
	"en": {
		morning:   "Good morning",
		afternoon: "Good afternoon",
		evening:   "Good evening",
		welcome:   "%s!\nWelcome to %s digital service.\nI'm the assistant, shall we start?",

		menuSchedule:  "Book an appointment",
		menuHours:     "Opening hours",
		menuHuman:     "Talk to an agent",
		menuList:      "List appointments",
		backToMenu:    "Back to the main menu.",
		notUnderstood: "Sorry, please choose an option from the menu.",

		askName:      "Great! To begin, what is your full name?",
		invalidName:  "Please enter your name (2+ letters).",
		askPhone:     "Nice to meet you, %s. What is your phone number with area code? e.g. 11 91234-5678",
		invalidPhone: "Invalid number. Try the format (11) 91234-5678.",
		askType:      "Thanks! I'll use %s. What would you like to book: a consultation or an exam?",
		invalidType:  "Choose: consultation or exam.",
		consultation: "Consultation",
		exam:         "Exam",

		askSpecialty:     "Perfect. Choose the specialty:",
		invalidSpecialty: "Please pick one of the listed specialties.",
		askDoctor:        "Select a professional:",
		invalidDoctor:    "Please pick one of the listed professionals.",
		askDay:           "OK. Choose the day for your visit:",
		doctorChosen:     "You chose %s. Now select the day:",
		invalidDay:       "Choose a valid day from the options.",
		closedDay:        "That date is unavailable (Sunday/holiday). Choose another.",
		noSlots:          "There are no times left on that date. Choose another day.",
		askTime:          "Date chosen: %s. Select an available time:",
		invalidTime:      "Please pick one of the listed times.",
		slotTaken:        "Sorry, %s was just taken. Choose another time:",

		summary:           "Please confirm your booking:\nName: %s\nPhone: %s\nType: %s\nSpecialty: %s\nProfessional: %s\nDate: %s • %s",
		confirmYes:        "Confirm",
		confirmRedo:       "Start over",
		confirmCancel:     "Cancel",
		confirmUnknown:    "Reply confirm, start over or cancel.",
		draftCancelled:    "Booking cancelled. Can I help with anything else?",
		confirmed:         "Booking confirmed ✅\nName: %s\nType: %s (%s)\nDate: %s • %s\nContact: %s",
		inviteReady:       "You can download the calendar invite now.",
		conflictAtConfirm: "Sorry, %s was booked in the meantime. Choose another time:",
		conflictNoSlotsLeft: "Sorry, %s was booked in the meantime and that day is now full. " +
			"Choose another day:",
		persistenceNotice: "We couldn't save right now. Your details are kept, please try again.",
		reminder:          "Automatic reminder: %s, your %s is on %s at %s. Confirm attendance?",
		reminderYes:       "I'll be there",
		reminderNo:        "Cancel",
		reminderUnknown:   "Please confirm or cancel your appointment.",

		attendanceConfirmed: "Attendance confirmed! Thank you 🙏",
		reminderCancelled:   "Appointment cancelled. We'll let the team know.",

		handoverIntro:   "I'll connect you with our team. Join the queue or leave a message.",
		handoverQueue:   "Join the queue",
		handoverMessage: "Leave a message",
		queued:          "You're number %d in the queue. An agent will be with you shortly.",
		messageRecorded: "Message recorded. Our team will contact you.",
		hours:           "Opening hours: Monday to Friday %s–%s. Saturday %s–%s. Closed on Sundays and holidays.",
		listEmpty:       "You have no saved appointments.",
		listHeader:      "Your saved appointments:",
		listLine:        "• %s %s, %s (%s) [%s]",
		restarted:       "Conversation restarted.",
		dayLabel:        "%s (%s)",
		noDoctor:        "any",
	},
	"pt": {
		morning:   "Bom dia",
		afternoon: "Boa tarde",
		evening:   "Boa noite",
		welcome:   "%s!\nBem-vindo ao atendimento digital da %s.\nSou o Assistente, vamos começar?",

		menuSchedule:  "Agendar consulta",
		menuHours:     "Horário de atendimento",
		menuHuman:     "Falar com atendente",
		menuList:      "Listar agendamentos",
		backToMenu:    "Voltando ao menu principal.",
		notUnderstood: "Desculpe, escolha uma opção do menu.",

		askName:      "Ótimo! Para começar, qual é o seu nome completo?",
		invalidName:  "Por favor, informe seu nome (2+ caracteres).",
		askPhone:     "Prazer, %s. Agora, qual o seu telefone com DDD? Ex: 11 91234-5678",
		invalidPhone: "Número inválido. Tente no formato: (11) 91234-5678",
		askType:      "Obrigado! Vou usar %s. O que deseja agendar? Consulta ou Exame?",
		invalidType:  "Escolha: Consulta ou Exame",
		consultation: "Consulta",
		exam:         "Exame",

		askSpecialty:     "Perfeito. Escolha a especialidade:",
		invalidSpecialty: "Escolha uma das especialidades listadas.",
		askDoctor:        "Selecione um profissional:",
		invalidDoctor:    "Escolha um dos profissionais listados.",
		askDay:           "Ok. Escolha o dia para o atendimento:",
		doctorChosen:     "Você escolheu %s. Agora, selecione o dia:",
		invalidDay:       "Escolha um dia válido nas opções.",
		closedDay:        "Data indisponível (domingo/feriado). Escolha outra.",
		noSlots:          "Não há horários disponíveis nessa data. Escolha outro dia.",
		askTime:          "Data escolhida: %s. Selecione horário disponível:",
		invalidTime:      "Escolha um dos horários listados.",
		slotTaken:        "Desculpe, %s acabou de ser reservado. Escolha outro horário:",

		summary:             "Confirme seu agendamento:\nNome: %s\nTelefone: %s\nTipo: %s\nEspecialidade: %s\nProfissional: %s\nData: %s • %s",
		confirmYes:          "Confirmar",
		confirmRedo:         "Refazer",
		confirmCancel:       "Cancelar",
		confirmUnknown:      "Responda confirmar, refazer ou cancelar.",
		draftCancelled:      "Agendamento cancelado. Posso ajudar em outra coisa?",
		confirmed:           "Agendamento realizado com sucesso ✅\nNome: %s\nTipo: %s (%s)\nData: %s • %s\nContato: %s",
		inviteReady:         "Você pode baixar o convite do calendário agora.",
		conflictAtConfirm:   "Desculpe, %s foi reservado enquanto isso. Escolha outro horário:",
		conflictNoSlotsLeft: "Desculpe, %s foi reservado enquanto isso e o dia lotou. Escolha outro dia:",
		persistenceNotice:   "Não foi possível salvar agora. Seus dados foram mantidos, tente novamente.",
		reminder:            "Lembrete automático: %s, sua %s é em %s às %s. Confirmar presença?",
		reminderYes:         "Confirmo",
		reminderNo:          "Cancelar",
		reminderUnknown:     "Confirme ou cancele sua consulta.",

		attendanceConfirmed: "Presença confirmada! Obrigado 🙏",
		reminderCancelled:   "Consulta cancelada. Vamos registrar e avisar a equipe.",

		handoverIntro:   "Vou te encaminhar para nossa equipe. Entre na fila ou deixe uma mensagem.",
		handoverQueue:   "Entrar na fila",
		handoverMessage: "Deixar mensagem",
		queued:          "Você é o número %d na fila. Um atendente falará com você em breve.",
		messageRecorded: "Mensagem registrada. Nossa equipe entrará em contato.",
		hours:           "Atendimento: segunda a sexta %s–%s. Sábado %s–%s. Domingos e feriados fechados.",
		listEmpty:       "Você não tem agendamentos salvos.",
		listHeader:      "Aqui estão seus agendamentos salvos:",
		listLine:        "• %s %s, %s (%s) [%s]",
		restarted:       "Conversa reiniciada.",
		dayLabel:        "%s (%s)",
		noDoctor:        "qualquer",
	},
}

func catalogFor(locale string) messages {
	if m, ok := catalogs[locale]; ok {
		return m
	}
	return catalogs["en"]
}
